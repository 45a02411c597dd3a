// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the types shared between the pipeline resolver and
// its callers: the output sink contract, the per-request release context, and
// the closed set of typed resolution errors.
//
// The resolver is side-effecting rather than return-value-based: each entry
// point reports its result through an OutputSink, matching the chat-reply
// model of the surrounding system. Callers that need the text (HTTP handlers,
// the one-shot CLI) supply a collecting sink.
package datatypes

import "fmt"

// DefaultVersion is the product version assumed when the caller omits one.
const DefaultVersion = "4.10"

// OutputSink receives the resolver's user-facing and diagnostic output.
//
// Say delivers exactly one user-visible reply per call. MonitoringSay carries
// diagnostic detail to an internal channel and is never shown to the user.
// Snippet delivers a long payload as an attached file rather than inline text.
//
// Implementations must tolerate concurrent use from independent resolutions,
// but a single resolution invokes its sink sequentially.
type OutputSink interface {
	Say(message string)
	MonitoringSay(message string)
	Snippet(payload, intro, filename string)
}

// ReleaseContext scopes every lookup in a resolution. It is immutable for the
// lifetime of a request: the same brew package resolves to different CDN
// repos under different variants, so the variant must never be recomputed
// mid-traversal.
type ReleaseContext struct {
	// Version is the product version in "major.minor" form, e.g. "4.10".
	Version string

	// Variant is the product variant that scopes Brew to CDN mappings,
	// e.g. "8Base-RHOSE-4.10".
	Variant string
}

// NewReleaseContext derives a ReleaseContext from a version string, falling
// back to DefaultVersion when the version is empty.
func NewReleaseContext(version string) ReleaseContext {
	if version == "" {
		version = DefaultVersion
	}
	return ReleaseContext{
		Version: version,
		Variant: fmt.Sprintf("8Base-RHOSE-%s", version),
	}
}
