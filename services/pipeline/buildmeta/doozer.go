// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package buildmeta

import (
	"context"
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/executor"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// gssapiErrorMarker appears on doozer's stderr when its Kerberos ticket is
// missing or expired. Matched against stderr because doozer exits non-zero
// for many unrelated reasons.
const gssapiErrorMarker = "koji.GSSAPIAuthError"

// commandRunner abstracts the doozer process invocation so tests can feed
// canned output. The production implementation shells out via the executor
// library.
type commandRunner interface {
	run(ctx context.Context, args ...string) (*executor.Result, error)
}

type execRunner struct {
	binary string
}

func (r execRunner) run(ctx context.Context, args ...string) (*executor.Result, error) {
	return executor.New(r.binary, args...).Execute(ctx)
}

// Doozer invokes the build-orchestration command that enumerates all
// components of a version. One invocation prints one two-column table; the
// Fetcher memoizes parsed tables so each direction of a mapping costs a
// single round trip per version.
type Doozer struct {
	dataPath string
	runner   commandRunner
}

// NewDoozer returns a Doozer invoking the given binary. dataPath, when
// non-empty, is passed as --data-path (used in development against a local
// ocp-build-data checkout).
func NewDoozer(binary, dataPath string) *Doozer {
	return &Doozer{
		dataPath: dataPath,
		runner:   execRunner{binary: binary},
	}
}

// ImagesPrint runs `doozer images:print --short <format>` for a version and
// returns raw stdout.
//
// Failure modes:
//   - stderr mentioning a GSSAPI failure → datatypes.KerberosAuthenticationError,
//     regardless of exit code, so the caller-level reauth wrapper can retry.
//   - any other non-zero exit → wrapped execution error.
func (d *Doozer) ImagesPrint(ctx context.Context, version, format string) (string, error) {
	args := []string{"--disable-gssapi"}
	if d.dataPath != "" {
		args = append(args, "--data-path", d.dataPath)
	}
	args = append(args, "-g", fmt.Sprintf("openshift-%s", version), "images:print", "--short", format)

	res, err := d.runner.run(ctx, args...)
	if res != nil && strings.Contains(res.Stderr, gssapiErrorMarker) {
		return "", &datatypes.KerberosAuthenticationError{Service: "doozer"}
	}
	if err != nil {
		return "", fmt.Errorf("buildmeta: doozer images:print for openshift-%s: %w", version, err)
	}
	return res.Stdout, nil
}

// mappingRow is one parsed line of a doozer two-column table.
type mappingRow struct {
	Left  string
	Right string
}

// parseMappingTable parses `left: right` lines into rows.
//
// An empty table is not an error here — callers distinguish "no data for
// this version" (NullDataReturned) from "this one key is absent". A line
// that exists but does not match the two-column schema is a
// MalformedMappingData error: format drift in the upstream tool must not be
// mistaken for an empty result.
func parseMappingTable(source, out string) ([]mappingRow, error) {
	var rows []mappingRow
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		left, right, ok := strings.Cut(line, ": ")
		if !ok || left == "" || strings.TrimSpace(right) == "" {
			return nil, &datatypes.MalformedMappingData{Source: source, Line: line}
		}
		rows = append(rows, mappingRow{Left: left, Right: strings.TrimSpace(right)})
	}
	return rows, nil
}
