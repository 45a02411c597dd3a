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
	"context"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// Single-edge lookups between adjacent pipeline stages. Each returns a typed
// resolution error on a miss so the driver can classify without string
// matching.

// githubToDistgit maps a GitHub repo to the dist-gits built from it. A repo
// may feed more than one component.
func (r *Resolver) githubToDistgit(ctx context.Context, githubRepo string, rc datatypes.ReleaseContext) ([]string, error) {
	table, err := r.meta.GithubDistgitTable(ctx, rc.Version)
	if err != nil {
		return nil, err
	}
	distgits, ok := table[githubRepo]
	if !ok || len(distgits) == 0 {
		return nil, &datatypes.DistgitFromGithubNotFound{Repo: githubRepo, Version: rc.Version}
	}
	return distgits, nil
}

// distgitToGithub maps a dist-git component to its upstream GitHub repo name.
func (r *Resolver) distgitToGithub(ctx context.Context, distgit string, rc datatypes.ReleaseContext) (string, error) {
	table, err := r.meta.DistgitGithubTable(ctx, rc.Version)
	if err != nil {
		return "", err
	}
	githubRepo, ok := table[distgit]
	if !ok {
		return "", &datatypes.GithubFromDistgitNotFound{Distgit: distgit, Version: rc.Version}
	}
	return githubRepo, nil
}

// distgitToBrew derives the brew package name for a dist-git: the recipe's
// distgit.component override when present, else <distgit>-container.
func (r *Resolver) distgitToBrew(ctx context.Context, distgit string, rc datatypes.ReleaseContext) (string, error) {
	recipe, err := r.meta.ImageRecipe(ctx, distgit, rc.Version)
	if err != nil {
		return "", err
	}
	if recipe.Distgit.Component != "" {
		return recipe.Distgit.Component, nil
	}
	return distgit + "-container", nil
}

// brewToDistgit maps a brew package to its dist-git via the component table.
func (r *Resolver) brewToDistgit(ctx context.Context, brewName string, rc datatypes.ReleaseContext) (string, error) {
	table, err := r.meta.ComponentTable(ctx, rc.Version)
	if err != nil {
		return "", err
	}
	distgit, ok := table[brewName]
	if !ok {
		return "", &datatypes.BrewToDistgitMappingNotFound{Brew: brewName, Version: rc.Version}
	}
	return distgit, nil
}

// brewToCDN lists the CDN repos carrying a brew package, keeping only repos
// bound to the release variant. Package tags span all variants, so the
// unfiltered list is a false-positive source; zero matches after filtering
// is a hard miss, never a fallback to the unfiltered list.
func (r *Resolver) brewToCDN(ctx context.Context, brewName, variant string) ([]string, error) {
	candidates, err := r.errata.CdnReposForPackage(ctx, brewName)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, cdnName := range candidates {
		repo, err := r.errata.CdnRepoDetails(ctx, cdnName)
		if err != nil {
			return nil, err
		}
		for _, v := range repo.Variants {
			if v.Name == variant {
				matched = append(matched, cdnName)
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil, &datatypes.CdnFromBrewNotFound{Brew: brewName, Variant: variant}
	}
	return matched, nil
}

// cdnToBrew maps a CDN repo to its single brew package. More than one
// package on a repo is an ambiguity the ART team has to untangle.
func (r *Resolver) cdnToBrew(ctx context.Context, cdnName string) (string, error) {
	repo, err := r.errata.CdnRepoDetails(ctx, cdnName)
	if err != nil {
		return "", err
	}
	if len(repo.Packages) > 1 {
		return "", &datatypes.MultipleCdnToBrewMappings{Cdn: cdnName, Packages: repo.Packages}
	}
	if len(repo.Packages) == 0 {
		return "", &datatypes.BrewNotFoundFromCdn{Cdn: cdnName}
	}
	return repo.Packages[0], nil
}

// cdnToDelivery maps a CDN repo to its customer-facing delivery repo name.
func (r *Resolver) cdnToDelivery(ctx context.Context, cdnName string) (string, error) {
	repo, err := r.errata.CdnRepoDetails(ctx, cdnName)
	if err != nil {
		return "", err
	}
	if repo.ExternalName == "" {
		return "", &datatypes.DeliveryRepoNotFound{Cdn: cdnName}
	}
	return repo.ExternalName, nil
}

// cdnRepoID returns the CDN repo's numeric id, used to build its page URL.
func (r *Resolver) cdnRepoID(ctx context.Context, cdnName string) (int, error) {
	repo, err := r.errata.CdnRepoDetails(ctx, cdnName)
	if err != nil {
		return 0, err
	}
	if repo.ID == 0 {
		return 0, &datatypes.CdnIDNotFound{Cdn: cdnName}
	}
	return repo.ID, nil
}

// variantID returns the id of the release variant on a CDN repo.
func (r *Resolver) variantID(ctx context.Context, cdnName, variant string) (int, error) {
	repo, err := r.errata.CdnRepoDetails(ctx, cdnName)
	if err != nil {
		return 0, err
	}
	for _, v := range repo.Variants {
		if v.Name == variant {
			return v.ID, nil
		}
	}
	return 0, &datatypes.VariantIDNotFound{Cdn: cdnName, Variant: variant}
}

// brewFromDelivery maps a delivery repo back to its single brew package.
func (r *Resolver) brewFromDelivery(ctx context.Context, deliveryRepo string) (string, error) {
	packages, err := r.pyxis.BrewPackagesForRepo(ctx, deliveryRepo)
	if err != nil {
		return "", err
	}
	if len(packages) > 1 {
		return "", &datatypes.MultipleBrewFromDelivery{DeliveryRepo: deliveryRepo, Packages: packages}
	}
	if len(packages) == 0 {
		return "", &datatypes.BrewFromDeliveryNotFound{DeliveryRepo: deliveryRepo}
	}
	return packages[0], nil
}

// brewToCdnDelivery picks, among the CDN repos a brew package maps to under
// the variant, the one whose delivery repo matches. Used when walking
// backwards from a delivery repo.
func (r *Resolver) brewToCdnDelivery(ctx context.Context, brewName, variant, deliveryRepo string) (string, error) {
	cdnNames, err := r.brewToCDN(ctx, brewName, variant)
	if err != nil {
		return "", err
	}
	for _, cdnName := range cdnNames {
		delivery, err := r.cdnToDelivery(ctx, cdnName)
		if err != nil {
			return "", err
		}
		if delivery == deliveryRepo {
			return cdnName, nil
		}
	}
	return "", &datatypes.BrewToCdnWithDeliveryNotFound{
		Brew:         brewName,
		Variant:      variant,
		DeliveryRepo: deliveryRepo,
	}
}
