// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import "testing"

func TestParsePipelineCommands(t *testing.T) {
	cases := []struct {
		text    string
		stage   Stage
		name    string
		version string
	}{
		{"what is the image pipeline for github ironic-image", StageGitHub, "ironic-image", ""},
		{"what is the image pipeline for github ironic-image in 4.10", StageGitHub, "ironic-image", "4.10"},
		{"what is the image pipeline for github openshift/ironic-image", StageGitHub, "ironic-image", ""},
		{"what is the image pipeline for github github.com/openshift/ironic-image", StageGitHub, "ironic-image", ""},
		{"what is the image pipeline for github https://github.com/openshift/ironic-image.git", StageGitHub, "ironic-image", ""},
		{"what is the image pipeline for github https://github.com/openshift/ironic-image/ in 4.8", StageGitHub, "ironic-image", "4.8"},
		{"what is the image pipeline for distgit ironic", StageDistgit, "ironic", ""},
		{"what is the image pipeline for distgit containers/ironic in 4.10", StageDistgit, "ironic", "4.10"},
		{"what is the image pipeline for package ironic-container", StageBrew, "ironic-container", ""},
		{"what is the image pipeline for package ironic-container in 4.9", StageBrew, "ironic-container", "4.9"},
		{"what is the image pipeline for cdn redhat-openshift4-ose-ironic-rhel8", StageCDN, "redhat-openshift4-ose-ironic-rhel8", ""},
		{"what is the image pipeline for image ose-ironic-rhel8", StageDelivery, "ose-ironic-rhel8", ""},
		{"what is the image pipeline for image openshift4/ose-ironic-rhel8", StageDelivery, "ose-ironic-rhel8", ""},
		{"what is the image pipeline for image registry.redhat.io/openshift4/ose-ironic-rhel8 in 4.10", StageDelivery, "ose-ironic-rhel8", "4.10"},
		{"pipeline for github ironic-image", StageGitHub, "ironic-image", ""},
	}

	for _, tc := range cases {
		cmd, ok := Parse(tc.text)
		if !ok {
			t.Errorf("%q: no route matched", tc.text)
			continue
		}
		if cmd.Stage != tc.stage {
			t.Errorf("%q: stage = %q, want %q", tc.text, cmd.Stage, tc.stage)
		}
		if cmd.Name != tc.name {
			t.Errorf("%q: name = %q, want %q", tc.text, cmd.Name, tc.name)
		}
		if cmd.Version != tc.version {
			t.Errorf("%q: version = %q, want %q", tc.text, cmd.Version, tc.version)
		}
	}
}

func TestParseRejectsOtherText(t *testing.T) {
	for _, text := range []string{
		"hello there",
		"what rpms are in image ironic-container-v4.10.0",
		"pipeline for",
		"",
	} {
		if cmd, ok := Parse(text); ok {
			t.Errorf("%q: unexpectedly matched %+v", text, cmd)
		}
	}
}
