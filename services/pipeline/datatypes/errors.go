// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Resolution Error Taxonomy
// =============================================================================
//
// Every failure the resolver can produce is one of the typed errors below,
// each carrying the specific inputs that failed to resolve. "Not found" is an
// expected, user-correctable outcome here, not exceptional control flow, so
// each error classifies itself via Class():
//
//	ClassNotFound  — a node or field does not exist for the given key;
//	                 reported verbatim to the user, appended to any partial
//	                 report already accumulated.
//	ClassAmbiguous — an edge expected to be 1:1 returned more than one
//	                 result; a metadata inconsistency, not user error.
//	ClassNullData  — upstream tooling produced no data at all for a version;
//	                 distinct from a per-entity miss.
//	ClassAuth      — transient credential/trust failure; retried exactly once
//	                 after a ticket refresh, then surfaced as internal.
//	ClassInternal  — service connectivity or malformed upstream data;
//	                 surfaced as internal, not retried.
//
// The driver branches on Classify(err); anything unclassified is reported to
// the user generically and forwarded verbatim to the monitoring sink.

// Class partitions resolution errors by how the driver reports them.
type Class int

const (
	// ClassUnknown marks errors outside the resolution taxonomy.
	ClassUnknown Class = iota

	// ClassNotFound marks user-correctable per-entity misses.
	ClassNotFound

	// ClassAmbiguous marks 1:1 edges that returned more than one result.
	ClassAmbiguous

	// ClassNullData marks upstream tooling that returned no data at all.
	ClassNullData

	// ClassAuth marks transient Kerberos/ticket failures.
	ClassAuth

	// ClassInternal marks service connectivity or malformed-data failures.
	ClassInternal
)

// String returns a stable label for the class, suitable for metrics.
func (c Class) String() string {
	switch c {
	case ClassNotFound:
		return "not_found"
	case ClassAmbiguous:
		return "ambiguous"
	case ClassNullData:
		return "null_data"
	case ClassAuth:
		return "auth"
	case ClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ResolutionError is implemented by every error in the taxonomy.
type ResolutionError interface {
	error
	Class() Class
}

// Classify returns the class of the first ResolutionError in err's chain,
// or ClassUnknown if there is none.
func Classify(err error) Class {
	var rerr ResolutionError
	if errors.As(err, &rerr) {
		return rerr.Class()
	}
	return ClassUnknown
}

// =============================================================================
// Not-found errors (user-correctable)
// =============================================================================

// DistgitFromGithubNotFound reports a GitHub repo with no dist-git mapping in
// the requested version.
type DistgitFromGithubNotFound struct {
	Repo    string
	Version string
}

func (e *DistgitFromGithubNotFound) Error() string {
	return fmt.Sprintf("Couldn't find Distgit repo from GitHub `%s` and version `%s`", e.Repo, e.Version)
}

func (e *DistgitFromGithubNotFound) Class() Class { return ClassNotFound }

// GithubFromDistgitNotFound reports a dist-git with no upstream mapping in
// the requested version.
type GithubFromDistgitNotFound struct {
	Distgit string
	Version string
}

func (e *GithubFromDistgitNotFound) Error() string {
	return fmt.Sprintf("Couldn't find GitHub repo from distgit `%s` and version `%s`", e.Distgit, e.Version)
}

func (e *GithubFromDistgitNotFound) Class() Class { return ClassNotFound }

// DistgitNotFound reports a dist-git whose build-recipe document does not
// exist at all for the requested version. Distinct from "recipe exists but
// declares no component override".
type DistgitNotFound struct {
	Distgit string
	Version string
	URL     string
}

func (e *DistgitNotFound) Error() string {
	return fmt.Sprintf("image dist-git %s definition was not found at %s", e.Distgit, e.URL)
}

func (e *DistgitNotFound) Class() Class { return ClassNotFound }

// BrewToDistgitMappingNotFound reports a brew package absent from the
// component table for the requested version.
type BrewToDistgitMappingNotFound struct {
	Brew    string
	Version string
}

func (e *BrewToDistgitMappingNotFound) Error() string {
	return fmt.Sprintf("Could not find brew-distgit mapping for `%s` in version `%s`", e.Brew, e.Version)
}

func (e *BrewToDistgitMappingNotFound) Class() Class { return ClassNotFound }

// BrewIDNotFound reports a package name unknown to the build system.
type BrewIDNotFound struct {
	Brew string
}

func (e *BrewIDNotFound) Error() string {
	return fmt.Sprintf("Brew ID not found for brew package `%s`. Check API call.", e.Brew)
}

func (e *BrewIDNotFound) Class() Class { return ClassNotFound }

// BrewNVRNotFound reports a build NVR unknown to the build system.
type BrewNVRNotFound struct {
	NVR string
}

func (e *BrewNVRNotFound) Error() string {
	return fmt.Sprintf("Brew build not found for NVR `%s`", e.NVR)
}

func (e *BrewNVRNotFound) Class() Class { return ClassNotFound }

// CdnFromBrewNotFound reports that no CDN repo bound to the requested variant
// exists for a brew package. Candidates bound only to other variants do not
// count; an unfiltered fallback would produce false positives.
type CdnFromBrewNotFound struct {
	Brew    string
	Variant string
}

func (e *CdnFromBrewNotFound) Error() string {
	return fmt.Sprintf("CDN was not found for brew `%s` and variant `%s`", e.Brew, e.Variant)
}

func (e *CdnFromBrewNotFound) Class() Class { return ClassNotFound }

// CdnNotFound reports a CDN repo name unknown to the release-management
// system.
type CdnNotFound struct {
	Cdn string
}

func (e *CdnNotFound) Error() string {
	return fmt.Sprintf("CDN was not found for CDN name %s", e.Cdn)
}

func (e *CdnNotFound) Class() Class { return ClassNotFound }

// DeliveryRepoNotFound reports a CDN repo with no external delivery name.
type DeliveryRepoNotFound struct {
	Cdn string
}

func (e *DeliveryRepoNotFound) Error() string {
	return fmt.Sprintf("Delivery Repo not found for CDN `%s`", e.Cdn)
}

func (e *DeliveryRepoNotFound) Class() Class { return ClassNotFound }

// CdnIDNotFound reports a CDN repo detail document missing its id field.
type CdnIDNotFound struct {
	Cdn string
}

func (e *CdnIDNotFound) Error() string {
	return fmt.Sprintf("CDN ID not found for CDN `%s`", e.Cdn)
}

func (e *CdnIDNotFound) Class() Class { return ClassNotFound }

// VariantIDNotFound reports a CDN repo not bound to the requested variant.
type VariantIDNotFound struct {
	Cdn     string
	Variant string
}

func (e *VariantIDNotFound) Error() string {
	return fmt.Sprintf("Variant ID not found for CDN `%s` and variant `%s`", e.Cdn, e.Variant)
}

func (e *VariantIDNotFound) Class() Class { return ClassNotFound }

// ProductIDNotFound reports a variant document missing its product version.
type ProductIDNotFound struct {
	VariantID int
}

func (e *ProductIDNotFound) Error() string {
	return fmt.Sprintf("Product ID not found for variant `%d`", e.VariantID)
}

func (e *ProductIDNotFound) Class() Class { return ClassNotFound }

// BrewFromDeliveryNotFound reports a delivery repo with no published brew
// packages in the container catalog.
type BrewFromDeliveryNotFound struct {
	DeliveryRepo string
}

func (e *BrewFromDeliveryNotFound) Error() string {
	return fmt.Sprintf("Brew package could not be found from delivery repo `%s`", e.DeliveryRepo)
}

func (e *BrewFromDeliveryNotFound) Class() Class { return ClassNotFound }

// BrewNotFoundFromCdn reports a CDN repo detail document with no brew
// packages listed.
type BrewNotFoundFromCdn struct {
	Cdn string
}

func (e *BrewNotFoundFromCdn) Error() string {
	return fmt.Sprintf("Brew package not mapped to CDN `%s` in Errata", e.Cdn)
}

func (e *BrewNotFoundFromCdn) Class() Class { return ClassNotFound }

// BrewToCdnWithDeliveryNotFound reports that none of the CDN repos mapped to
// a brew package under a variant leads onward to the given delivery repo.
type BrewToCdnWithDeliveryNotFound struct {
	Brew         string
	Variant      string
	DeliveryRepo string
}

func (e *BrewToCdnWithDeliveryNotFound) Error() string {
	return fmt.Sprintf("Could not find CDN from Brew name `%s` for delivery repo `%s`", e.Brew, e.DeliveryRepo)
}

func (e *BrewToCdnWithDeliveryNotFound) Class() Class { return ClassNotFound }

// DeliveryRepoIDNotFound reports a delivery repo with no id record in the
// container catalog.
type DeliveryRepoIDNotFound struct {
	DeliveryRepo string
}

func (e *DeliveryRepoIDNotFound) Error() string {
	return fmt.Sprintf("Couldn't find delivery repo ID on Pyxis for %s", e.DeliveryRepo)
}

func (e *DeliveryRepoIDNotFound) Class() Class { return ClassNotFound }

// =============================================================================
// Ambiguity errors (metadata inconsistencies)
// =============================================================================

// MultipleCdnToBrewMappings reports a CDN repo backed by more than one brew
// package. A CDN repo is expected to back exactly one.
type MultipleCdnToBrewMappings struct {
	Cdn      string
	Packages []string
}

func (e *MultipleCdnToBrewMappings) Error() string {
	return fmt.Sprintf("Multiple Brew to CDN mappings found for CDN `%s`: %s", e.Cdn, strings.Join(e.Packages, ", "))
}

func (e *MultipleCdnToBrewMappings) Class() Class { return ClassAmbiguous }

// MultipleBrewFromDelivery reports a delivery repo publishing images from
// more than one distinct brew package.
type MultipleBrewFromDelivery struct {
	DeliveryRepo string
	Packages     []string
}

func (e *MultipleBrewFromDelivery) Error() string {
	return fmt.Sprintf("Multiple brew packages found for delivery repo `%s`: %s", e.DeliveryRepo, strings.Join(e.Packages, ", "))
}

func (e *MultipleBrewFromDelivery) Class() Class { return ClassAmbiguous }

// =============================================================================
// Upstream data and service errors
// =============================================================================

// NullDataReturned reports upstream tooling that produced no data at all for
// a version, which necessarily breaks every lookup built on that data.
type NullDataReturned struct {
	Source  string
	Version string
}

func (e *NullDataReturned) Error() string {
	return fmt.Sprintf("No data from %s for version %s", e.Source, e.Version)
}

func (e *NullDataReturned) Class() Class { return ClassNullData }

// MalformedMappingData reports upstream tooling output that exists but does
// not match the expected two-column schema. Kept distinct from
// NullDataReturned so a format drift in the upstream tool is diagnosed as
// such instead of as an empty result.
type MalformedMappingData struct {
	Source string
	Line   string
}

func (e *MalformedMappingData) Error() string {
	return fmt.Sprintf("Malformed data from %s: %q", e.Source, e.Line)
}

func (e *MalformedMappingData) Class() Class { return ClassInternal }

// KerberosAuthenticationError reports a missing or expired ticket. All
// ticket-authenticated calls surface 401s uniformly as this error so one
// retry-after-reauth wrapper covers them.
type KerberosAuthenticationError struct {
	Service string
	Err     error
}

func (e *KerberosAuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Kerberos authentication failed for %s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("Kerberos authentication failed for %s", e.Service)
}

func (e *KerberosAuthenticationError) Class() Class { return ClassAuth }

func (e *KerberosAuthenticationError) Unwrap() error { return e.Err }

// KojiClientError reports a build-system connectivity failure.
type KojiClientError struct {
	Err error
}

func (e *KojiClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Failed to connect to Brew: %v", e.Err)
	}
	return "Failed to connect to Brew"
}

func (e *KojiClientError) Class() Class { return ClassInternal }

func (e *KojiClientError) Unwrap() error { return e.Err }
