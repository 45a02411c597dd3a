// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scm probes whether source repositories exist: public GitHub repos
// in the openshift org, and dist-git container repos on cgit. The probes are
// cheap existence checks used to fail fast before any mapping work starts.
package scm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Prober answers repository existence checks.
//
// Thread Safety: safe for concurrent use.
type Prober struct {
	githubURL string
	githubOrg string
	cgitURL   string
	client    *http.Client
}

// NewProber wires a Prober for one GitHub org and one cgit instance.
func NewProber(githubURL, githubOrg, cgitURL string) *Prober {
	return &Prober{
		githubURL: strings.TrimRight(githubURL, "/"),
		githubOrg: githubOrg,
		cgitURL:   strings.TrimRight(cgitURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// GithubRepoExists reports whether the repo exists under the configured org.
func (p *Prober) GithubRepoExists(ctx context.Context, repo string) (bool, error) {
	return p.head(ctx, fmt.Sprintf("%s/%s/%s", p.githubURL, p.githubOrg, repo))
}

// GithubRepoURL returns the public page URL for a repo under the org.
func (p *Prober) GithubRepoURL(repo string) string {
	return fmt.Sprintf("%s/%s/%s", p.githubURL, p.githubOrg, repo)
}

// DistgitRepoExists reports whether the containers dist-git repo exists.
func (p *Prober) DistgitRepoExists(ctx context.Context, distgit string) (bool, error) {
	return p.head(ctx, fmt.Sprintf("%s/containers/%s", p.cgitURL, distgit))
}

// DistgitRepoURL returns the cgit page URL for a containers dist-git repo.
func (p *Prober) DistgitRepoURL(distgit string) string {
	return fmt.Sprintf("%s/containers/%s", p.cgitURL, distgit)
}

func (p *Prober) head(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("scm: building probe for %s: %w", url, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("scm: probing %s: %w", url, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("scm: probing %s: unexpected status %d", url, resp.StatusCode)
	}
}
