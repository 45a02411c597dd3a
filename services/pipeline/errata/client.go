// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package errata is the client for the release-management API: CDN repo and
// package-tag relationships, CDN repo detail documents, and variant
// documents. All calls are ticket-authenticated through a kerberos.Session,
// which uniformly maps 401s to the resolver's auth error and rate-limits
// outbound requests.
//
// Only the fields the resolver consumes are modeled; the API's wire shape is
// external, versioned, and not under our control.
package errata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// Variant is one product variant bound to a CDN repo.
type Variant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CdnRepo is the detail document for one CDN repo.
type CdnRepo struct {
	// ID is the repo's numeric id, used to build its page URL.
	ID int

	// ExternalName is the customer-facing (delivery) repository name.
	ExternalName string

	// Variants are the product variants the repo is bound to.
	Variants []Variant

	// Packages are the brew package names mapped to the repo.
	Packages []string
}

// session is the authenticated GET surface this client needs.
type session interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client talks to one release-management deployment.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL string
	session session
}

// NewClient wires a Client against baseURL using the given authenticated
// session.
func NewClient(baseURL string, s session) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), session: s}
}

// --- wire shapes ---

type packageTagList struct {
	Data []struct {
		Relationships struct {
			CdnRepo struct {
				Name string `json:"name"`
			} `json:"cdn_repo"`
		} `json:"relationships"`
	} `json:"data"`
}

type cdnRepoDocument struct {
	Data struct {
		ID         int `json:"id"`
		Attributes struct {
			ExternalName string `json:"external_name"`
		} `json:"attributes"`
		Relationships struct {
			Variants []Variant `json:"variants"`
			Packages []struct {
				Name string `json:"name"`
			} `json:"packages"`
		} `json:"relationships"`
	} `json:"data"`
}

type variantDocument struct {
	Data struct {
		Attributes struct {
			Relationships struct {
				ProductVersion struct {
					ID int `json:"id"`
				} `json:"product_version"`
			} `json:"relationships"`
		} `json:"attributes"`
	} `json:"data"`
}

// CdnReposForPackage lists the distinct CDN repo names that carry package
// tags for a brew package, across all variants. Callers filter by variant;
// this call alone is a false-positive source.
func (c *Client) CdnReposForPackage(ctx context.Context, brewName string) ([]string, error) {
	u := fmt.Sprintf("%s/api/v1/cdn_repo_package_tags?filter[package_name]=%s", c.baseURL, url.QueryEscape(brewName))

	var doc packageTagList
	if err := c.getJSON(ctx, u, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var repos []string
	for _, item := range doc.Data {
		name := item.Relationships.CdnRepo.Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		repos = append(repos, name)
	}
	return repos, nil
}

// CdnRepoDetails fetches the detail document for a CDN repo. A 404 is
// CdnNotFound: the repo name itself is unknown.
func (c *Client) CdnRepoDetails(ctx context.Context, cdnName string) (*CdnRepo, error) {
	u := fmt.Sprintf("%s/api/v1/cdn_repos/%s", c.baseURL, url.PathEscape(cdnName))

	resp, err := c.session.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &datatypes.CdnNotFound{Cdn: cdnName}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("errata: cdn repo %s: unexpected status %d", cdnName, resp.StatusCode)
	}

	var doc cdnRepoDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("errata: decoding cdn repo %s: %w", cdnName, err)
	}

	repo := &CdnRepo{
		ID:           doc.Data.ID,
		ExternalName: doc.Data.Attributes.ExternalName,
		Variants:     doc.Data.Relationships.Variants,
	}
	for _, p := range doc.Data.Relationships.Packages {
		repo.Packages = append(repo.Packages, p.Name)
	}
	return repo, nil
}

// ProductID resolves a variant id to the id of its product version.
func (c *Client) ProductID(ctx context.Context, variantID int) (int, error) {
	u := fmt.Sprintf("%s/api/v1/variants/%d", c.baseURL, variantID)

	var doc variantDocument
	if err := c.getJSON(ctx, u, &doc); err != nil {
		return 0, err
	}
	if doc.Data.Attributes.Relationships.ProductVersion.ID == 0 {
		return 0, &datatypes.ProductIDNotFound{VariantID: variantID}
	}
	return doc.Data.Attributes.Relationships.ProductVersion.ID, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.session.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("errata: GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("errata: decoding %s: %w", url, err)
	}
	return nil
}
