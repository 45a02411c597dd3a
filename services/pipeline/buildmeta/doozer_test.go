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
	"errors"
	"strings"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/executor"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// fakeRunner records invocations and replays canned results.
type fakeRunner struct {
	calls   int
	args    [][]string
	results []*executor.Result
	errs    []error
}

func (f *fakeRunner) run(ctx context.Context, args ...string) (*executor.Result, error) {
	i := f.calls
	f.calls++
	f.args = append(f.args, args)
	var res *executor.Result
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func TestImagesPrintArguments(t *testing.T) {
	runner := &fakeRunner{results: []*executor.Result{{Stdout: "a: b\n"}}}
	d := &Doozer{dataPath: "/data/ocp-build-data", runner: runner}

	if _, err := d.ImagesPrint(context.Background(), "4.10", formatUpstream); err != nil {
		t.Fatalf("ImagesPrint: %v", err)
	}

	got := strings.Join(runner.args[0], " ")
	for _, want := range []string{"--disable-gssapi", "--data-path /data/ocp-build-data", "-g openshift-4.10", "images:print", formatUpstream} {
		if !strings.Contains(got, want) {
			t.Errorf("args %q missing %q", got, want)
		}
	}
}

func TestImagesPrintKerberosFailure(t *testing.T) {
	runner := &fakeRunner{
		results: []*executor.Result{{Stderr: "... koji.GSSAPIAuthError: unable to obtain ticket ...", ExitCode: 1}},
		errs:    []error{errors.New("exit status 1")},
	}
	d := &Doozer{runner: runner}

	_, err := d.ImagesPrint(context.Background(), "4.10", formatComponent)
	var authErr *datatypes.KerberosAuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want KerberosAuthenticationError", err)
	}
}

func TestImagesPrintOtherFailure(t *testing.T) {
	runner := &fakeRunner{
		results: []*executor.Result{{Stderr: "group not found", ExitCode: 1}},
		errs:    []error{errors.New("exit status 1")},
	}
	d := &Doozer{runner: runner}

	_, err := d.ImagesPrint(context.Background(), "9.99", formatComponent)
	if err == nil {
		t.Fatal("expected error")
	}
	if datatypes.Classify(err) == datatypes.ClassAuth {
		t.Errorf("non-GSSAPI failure misclassified as auth: %v", err)
	}
}

func TestParseMappingTable(t *testing.T) {
	rows, err := parseMappingTable("test", "github.com/openshift/ironic-image: ironic\n\ncomp: name\n")
	if err != nil {
		t.Fatalf("parseMappingTable: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Left != "github.com/openshift/ironic-image" || rows[0].Right != "ironic" {
		t.Errorf("row 0 = %+v", rows[0])
	}
}

func TestParseMappingTableMalformed(t *testing.T) {
	_, err := parseMappingTable("test", "this line has no separator\n")
	var malformed *datatypes.MalformedMappingData
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedMappingData", err)
	}
	if malformed.Line != "this line has no separator" {
		t.Errorf("Line = %q", malformed.Line)
	}
}

func TestParseMappingTableEmptyIsNotError(t *testing.T) {
	rows, err := parseMappingTable("test", "\n\n")
	if err != nil {
		t.Fatalf("parseMappingTable: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
