// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chat routes plain-text commands of the form
//
//	what is the image pipeline for github ironic-image in 4.10
//
// to the pipeline stage and identifier they name. Identifier forms are
// normalized here (GitHub URLs, containers/ prefixes, registry hostnames) so
// the resolver only ever sees bare names.
package chat

import (
	"regexp"
)

// Stage names a pipeline entry point a command routes to.
type Stage string

const (
	StageGitHub   Stage = "github"
	StageDistgit  Stage = "distgit"
	StageBrew     Stage = "brew"
	StageCDN      Stage = "cdn"
	StageDelivery Stage = "delivery"
)

// Command is a parsed pipeline request.
type Command struct {
	Stage Stage

	// Name is the normalized identifier at the entry stage.
	Name string

	// Version is the release version, empty when the command omits one.
	Version string
}

var pipelineRoutes = []struct {
	stage   Stage
	pattern *regexp.Regexp
}{
	{
		StageGitHub,
		regexp.MustCompile(`(?i)^.*(image )?pipeline\s+for\s+github\s+(https://)?(github\.com/)?(openshift/)?(?P<name>[a-zA-Z0-9-]+)(/|\.git)?\s*(\s+in\s+(?P<version>\d+\.\d+))?\s*$`),
	},
	{
		StageDistgit,
		regexp.MustCompile(`(?i)^.*(image )?pipeline\s+for\s+distgit\s+(containers/)?(?P<name>[a-zA-Z0-9-]+)(\s+in\s+(?P<version>\d+\.\d+))?\s*$`),
	},
	{
		StageBrew,
		regexp.MustCompile(`(?i)^.*(image )?pipeline\s+for\s+package\s+(?P<name>[\w.-]+)(\s+in\s+(?P<version>\d+\.\d+))?\s*$`),
	},
	{
		StageCDN,
		regexp.MustCompile(`(?i)^.*(image )?pipeline\s+for\s+cdn\s+(?P<name>[\w.-]+)(\s+in\s+(?P<version>\d+\.\d+))?\s*$`),
	},
	{
		StageDelivery,
		regexp.MustCompile(`(?i)^.*(image )?pipeline\s+for\s+image\s+(registry\.redhat\.io/)?(openshift4/)?(?P<name>[a-zA-Z0-9-]+)\s*(\s+in\s+(?P<version>\d+\.\d+))?\s*$`),
	},
}

// Parse matches text against the pipeline command forms. The second return
// is false when no form matches.
func Parse(text string) (Command, bool) {
	for _, route := range pipelineRoutes {
		m := route.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cmd := Command{Stage: route.stage}
		for i, group := range route.pattern.SubexpNames() {
			switch group {
			case "name":
				cmd.Name = m[i]
			case "version":
				cmd.Version = m[i]
			}
		}
		if cmd.Name == "" {
			continue
		}
		return cmd, true
	}
	return Command{}, false
}
