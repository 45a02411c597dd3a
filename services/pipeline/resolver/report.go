// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"fmt"
	"strings"
)

// Report line builders. Lines use Slack-style link markup, <url|*text*>, and
// keep a fixed vocabulary so downstream consumers can pattern-match them.

func (r *Resolver) upstreamLines(payload *strings.Builder, githubRepo string) {
	fmt.Fprintf(payload, "Upstream GitHub repository: <%s/%s/%s|*%s/%s*>\n",
		r.links.GithubURL, r.links.GithubOrg, githubRepo, r.links.GithubOrg, githubRepo)
	fmt.Fprintf(payload, "Private GitHub repository: <%s/%s/%s|*%s/%s*>\n",
		r.links.GithubURL, r.links.GithubPrivateOrg, githubRepo, r.links.GithubPrivateOrg, githubRepo)
}

func (r *Resolver) distgitLine(payload *strings.Builder, distgit string) {
	fmt.Fprintf(payload, "Production dist-git repo: <%s/containers/%s|*%s*>\n",
		r.links.CgitURL, distgit, distgit)
}

func (r *Resolver) brewLine(payload *strings.Builder, brewID int, brewName string) {
	fmt.Fprintf(payload, "Production brew builds: <%s/packageinfo?packageID=%d|*%s*>\n",
		r.links.BrewWebURL, brewID, brewName)
}

func (r *Resolver) deliveryLine(payload *strings.Builder, deliveryID, deliveryRepo string) {
	fmt.Fprintf(payload, "Delivery (Comet) repo: <%s/%s|*%s*>\n\n",
		r.links.CometURL, deliveryID, deliveryRepo)
}
