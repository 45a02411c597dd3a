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
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{
			name: "not found",
			err:  &DistgitFromGithubNotFound{Repo: "ironic-image", Version: "4.10"},
			want: ClassNotFound,
		},
		{
			name: "ambiguous",
			err:  &MultipleBrewFromDelivery{DeliveryRepo: "openshift4/ose-ironic-rhel8", Packages: []string{"a", "b"}},
			want: ClassAmbiguous,
		},
		{
			name: "null data",
			err:  &NullDataReturned{Source: "doozer", Version: "4.10"},
			want: ClassNullData,
		},
		{
			name: "auth",
			err:  &KerberosAuthenticationError{Service: "errata"},
			want: ClassAuth,
		},
		{
			name: "internal",
			err:  &KojiClientError{Err: errors.New("connection refused")},
			want: ClassInternal,
		},
		{
			name: "wrapped keeps class",
			err:  fmt.Errorf("resolver: %w", &CdnFromBrewNotFound{Brew: "ironic-container", Variant: "8Base-RHOSE-4.10"}),
			want: ClassNotFound,
		},
		{
			name: "plain error is unknown",
			err:  errors.New("boom"),
			want: ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessagesCarryInputs(t *testing.T) {
	err := &CdnFromBrewNotFound{Brew: "ose-ironic-container", Variant: "8Base-RHOSE-4.11"}
	msg := err.Error()
	for _, want := range []string{"ose-ironic-container", "8Base-RHOSE-4.11"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}

	auth := &KerberosAuthenticationError{Service: "pyxis", Err: errors.New("401")}
	if !errors.Is(auth, auth.Err) && auth.Unwrap() == nil {
		t.Error("KerberosAuthenticationError should unwrap its cause")
	}
}

func TestNewReleaseContext(t *testing.T) {
	rc := NewReleaseContext("4.11")
	if rc.Variant != "8Base-RHOSE-4.11" {
		t.Errorf("Variant = %q, want %q", rc.Variant, "8Base-RHOSE-4.11")
	}

	rc = NewReleaseContext("")
	if rc.Version != DefaultVersion {
		t.Errorf("Version = %q, want default %q", rc.Version, DefaultVersion)
	}
	if rc.Variant != "8Base-RHOSE-"+DefaultVersion {
		t.Errorf("Variant = %q, want %q", rc.Variant, "8Base-RHOSE-"+DefaultVersion)
	}
}
