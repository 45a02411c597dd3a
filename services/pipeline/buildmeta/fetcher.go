// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package buildmeta retrieves version-scoped build metadata: per-component
// build-recipe documents from the metadata repository, and the
// component/upstream mapping tables produced by the build-orchestration
// command. Every result is memoized per (kind, entity, version) for the
// lifetime of the process; the underlying data is deterministic for a fixed
// version, so a cached value never goes stale within one run.
package buildmeta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// Cache kinds.
const (
	kindUpstreamRows  = "upstream-rows"
	kindComponentRows = "component-rows"
	kindImageRecipe   = "image-recipe"
)

// Doozer output formats. Both tables come from the same subcommand; only the
// column template differs.
const (
	formatUpstream  = "{upstream_public}: {name}"
	formatComponent = "{component}: {name}"
)

// RecipeDistgit is the dist-git section of a build recipe.
type RecipeDistgit struct {
	// Component overrides the default brew package name when set.
	Component string `yaml:"component"`

	// BundleComponent overrides the default bundle component name when set.
	BundleComponent string `yaml:"bundle_component"`
}

// Recipe is the subset of a build-recipe document the resolver consumes.
// Unknown fields are ignored; the documents carry far more than we need.
type Recipe struct {
	// Name is the image name, e.g. "openshift/ose-ironic". The payload tag
	// is derived from the part after the slash.
	Name string `yaml:"name"`

	// ForPayload marks images included in the release payload.
	ForPayload bool `yaml:"for_payload"`

	Distgit RecipeDistgit `yaml:"distgit"`

	// UpdateCSV is present on operator-framework metadata components, which
	// ship a secondary bundle build. Only its presence matters.
	UpdateCSV *yaml.Node `yaml:"update-csv"`
}

// Fetcher is the config-scoped metadata fetcher. It owns the memoization
// cache; share one Fetcher per process.
//
// Thread Safety: safe for concurrent use.
type Fetcher struct {
	httpClient   *http.Client
	buildDataURL string
	doozer       *Doozer
	cache        *Cache
}

// NewFetcher wires a Fetcher. httpClient may be nil, in which case
// http.DefaultClient is used (recipe documents are public, no ticket
// involved).
func NewFetcher(buildDataURL string, doozer *Doozer, cache *Cache, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient:   httpClient,
		buildDataURL: strings.TrimRight(buildDataURL, "/"),
		doozer:       doozer,
		cache:        cache,
	}
}

// =============================================================================
// Component / upstream tables
// =============================================================================

// upstreamRows returns the parsed upstream table for a version: one doozer
// invocation, memoized, serving both lookup directions.
func (f *Fetcher) upstreamRows(ctx context.Context, version string) ([]mappingRow, error) {
	key := CacheKey{Kind: kindUpstreamRows, Version: version}
	return cached(ctx, f.cache, key, func(ctx context.Context) ([]mappingRow, error) {
		out, err := f.doozer.ImagesPrint(ctx, version, formatUpstream)
		if err != nil {
			return nil, err
		}
		rows, err := parseMappingTable("doozer upstream table", out)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &datatypes.NullDataReturned{Source: "doozer upstream table", Version: version}
		}
		return rows, nil
	})
}

// GithubDistgitTable maps a GitHub repo name to the dist-git components built
// from it in the given version. A repo may produce multiple components, so
// values are lists.
func (f *Fetcher) GithubDistgitTable(ctx context.Context, version string) (map[string][]string, error) {
	rows, err := f.upstreamRows(ctx, version)
	if err != nil {
		return nil, err
	}
	table := make(map[string][]string, len(rows))
	for _, row := range rows {
		repo := repoNameFromUpstream(row.Left)
		table[repo] = append(table[repo], row.Right)
	}
	return table, nil
}

// DistgitGithubTable maps a dist-git component to its upstream GitHub repo
// name in the given version.
func (f *Fetcher) DistgitGithubTable(ctx context.Context, version string) (map[string]string, error) {
	rows, err := f.upstreamRows(ctx, version)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		table[row.Right] = repoNameFromUpstream(row.Left)
	}
	return table, nil
}

// ComponentTable maps a brew component name to its dist-git name in the
// given version. Built from a second doozer invocation and memoized
// separately; the upstream table cannot provide component names.
func (f *Fetcher) ComponentTable(ctx context.Context, version string) (map[string]string, error) {
	key := CacheKey{Kind: kindComponentRows, Version: version}
	rows, err := cached(ctx, f.cache, key, func(ctx context.Context) ([]mappingRow, error) {
		out, err := f.doozer.ImagesPrint(ctx, version, formatComponent)
		if err != nil {
			return nil, err
		}
		rows, err := parseMappingTable("doozer component table", out)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &datatypes.NullDataReturned{Source: "doozer component table", Version: version}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		table[row.Left] = row.Right
	}
	return table, nil
}

// repoNameFromUpstream reduces an upstream reference ("github.com/openshift/x"
// or a full URL) to the bare repository name.
func repoNameFromUpstream(upstream string) string {
	upstream = strings.TrimRight(upstream, "/")
	if i := strings.LastIndex(upstream, "/"); i >= 0 {
		upstream = upstream[i+1:]
	}
	return strings.TrimSuffix(upstream, ".git")
}

// =============================================================================
// Build-recipe documents
// =============================================================================

// recipeURL is the raw document location; also carried inside
// DistgitNotFound so the user sees where the lookup went.
func (f *Fetcher) recipeURL(distgit, version string) string {
	return fmt.Sprintf("%s/openshift-%s/images/%s.yml", f.buildDataURL, version, distgit)
}

// ImageRecipe fetches and parses the build-recipe document for a component.
// A 404 means the dist-git has no recipe in this version and is reported as
// DistgitNotFound; note this is about the recipe document, not about whether
// the dist-git repository itself exists.
func (f *Fetcher) ImageRecipe(ctx context.Context, distgit, version string) (*Recipe, error) {
	key := CacheKey{Kind: kindImageRecipe, Entity: distgit, Version: version}
	return cached(ctx, f.cache, key, func(ctx context.Context) (*Recipe, error) {
		url := f.recipeURL(distgit, version)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("buildmeta: building recipe request: %w", err)
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("buildmeta: fetching recipe %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, &datatypes.DistgitNotFound{Distgit: distgit, Version: version, URL: url}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("buildmeta: fetching recipe %s: unexpected status %d", url, resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("buildmeta: reading recipe %s: %w", url, err)
		}
		var recipe Recipe
		if err := yaml.Unmarshal(raw, &recipe); err != nil {
			return nil, fmt.Errorf("buildmeta: parsing recipe %s: %w", url, err)
		}
		return &recipe, nil
	})
}

// ImageStreamTag returns the release-payload tag for a component, or "" (not
// an error) when the component is not part of the release payload.
func (f *Fetcher) ImageStreamTag(ctx context.Context, distgit, version string) (string, error) {
	recipe, err := f.ImageRecipe(ctx, distgit, version)
	if err != nil {
		return "", err
	}
	if !recipe.ForPayload {
		return "", nil
	}
	tag := recipe.Name
	if i := strings.Index(tag, "/"); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.TrimPrefix(tag, "ose-"), nil
}

// RequiresBundleBuild reports whether the component ships a secondary
// operator-bundle build.
func (f *Fetcher) RequiresBundleBuild(ctx context.Context, distgit, version string) (bool, error) {
	recipe, err := f.ImageRecipe(ctx, distgit, version)
	if err != nil {
		return false, err
	}
	return recipe.UpdateCSV != nil, nil
}

// BundleOverride returns the recipe's bundle component override, or "" when
// the default naming convention applies.
func (f *Fetcher) BundleOverride(ctx context.Context, distgit, version string) (string, error) {
	recipe, err := f.ImageRecipe(ctx, distgit, version)
	if err != nil {
		return "", err
	}
	return recipe.Distgit.BundleComponent, nil
}
