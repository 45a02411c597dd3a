// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver walks the release pipeline graph:
//
//	GitHub <-> Distgit <-> Brew <-> CDN <-> Delivery
//
// Given an identifier at any stage it resolves and reports the identifiers
// at every other stage, in a fixed order per entry point. Results stream to
// an OutputSink as Slack-style markup; errors partway through a traversal
// still deliver the lines accumulated so far.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openshift-eng/artbot/services/pipeline/buildmeta"
	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
	"github.com/openshift-eng/artbot/services/pipeline/errata"
)

// =============================================================================
// Collaborator interfaces
// =============================================================================

// BuildMeta serves ocp-build-data derived lookups: mapping tables and image
// recipe documents, memoized per version.
type BuildMeta interface {
	GithubDistgitTable(ctx context.Context, version string) (map[string][]string, error)
	DistgitGithubTable(ctx context.Context, version string) (map[string]string, error)
	ComponentTable(ctx context.Context, version string) (map[string]string, error)
	ImageRecipe(ctx context.Context, distgit, version string) (*buildmeta.Recipe, error)
	ImageStreamTag(ctx context.Context, distgit, version string) (string, error)
	RequiresBundleBuild(ctx context.Context, distgit, version string) (bool, error)
	BundleOverride(ctx context.Context, distgit, version string) (string, error)
}

// Errata serves CDN repo lookups from the release-management API.
type Errata interface {
	CdnReposForPackage(ctx context.Context, brewName string) ([]string, error)
	CdnRepoDetails(ctx context.Context, cdnName string) (*errata.CdnRepo, error)
	ProductID(ctx context.Context, variantID int) (int, error)
}

// Koji answers brew package lookups against the hub.
type Koji interface {
	PackageID(ctx context.Context, brewName string) (int, error)
}

// Pyxis answers delivery repo lookups against the container catalog.
type Pyxis interface {
	BrewPackagesForRepo(ctx context.Context, deliveryRepo string) ([]string, error)
	RepoID(ctx context.Context, deliveryRepo string) (string, error)
}

// Prober answers source-repo existence checks.
type Prober interface {
	GithubRepoExists(ctx context.Context, repo string) (bool, error)
	DistgitRepoExists(ctx context.Context, distgit string) (bool, error)
}

// Links holds the base URLs the report lines link to.
type Links struct {
	GithubURL        string
	GithubOrg        string
	GithubPrivateOrg string
	CgitURL          string
	BrewWebURL       string
	ErrataURL        string
	CometURL         string
}

// Resolver drives pipeline traversals. All collaborators are injected so the
// traversal logic tests without network.
//
// Thread Safety: safe for concurrent use; all state is read-only after
// construction.
type Resolver struct {
	meta   BuildMeta
	errata Errata
	koji   Koji
	pyxis  Pyxis
	prober Prober
	links  Links
	logger *slog.Logger
}

// NewResolver wires a Resolver.
func NewResolver(meta BuildMeta, et Errata, koji Koji, pyxis Pyxis, prober Prober, links Links, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		meta:   meta,
		errata: et,
		koji:   koji,
		pyxis:  pyxis,
		prober: prober,
		links:  links,
		logger: logger,
	}
}

const fetchingNotice = "Fetching data. Please wait..."

// =============================================================================
// Entry points, one per pipeline stage
// =============================================================================

// FromGitHub reports the full pipeline for a GitHub repo name.
//
// Traversal: GitHub -> Distgit -> Brew -> CDN -> Delivery. A repo mapping to
// several dist-gits fans out into one chain per dist-git.
func (r *Resolver) FromGitHub(ctx context.Context, sink datatypes.OutputSink, githubRepo, version string) error {
	done := observeResolution("github")
	rc := datatypes.NewReleaseContext(version)

	exists, err := r.prober.GithubRepoExists(ctx, githubRepo)
	if err != nil {
		return done(r.fail(sink, "github", "", err))
	}
	if !exists {
		sink.Say(fmt.Sprintf("No GitHub repo with name *%s* exists. Try again.\n"+
			"Example format: *what is the image pipeline for github `ironic-image`*", githubRepo))
		done(nil)
		return nil
	}
	sink.Say(fetchingNotice)

	var payload strings.Builder
	r.upstreamLines(&payload, githubRepo)

	distgits, err := r.githubToDistgit(ctx, githubRepo, rc)
	if err != nil {
		return done(r.fail(sink, "github", payload.String(), err))
	}
	if len(distgits) > 1 {
		fmt.Fprintf(&payload, "\n*More than one dist-gits were found for the GitHub repo `%s`*\n\n", githubRepo)
	}
	for _, distgit := range distgits {
		r.distgitLine(&payload, distgit)
		if err := r.distgitToDelivery(ctx, &payload, distgit, rc); err != nil {
			return done(r.fail(sink, "github", payload.String(), err))
		}
		payload.WriteString("\n")
	}

	sink.Say(payload.String())
	done(nil)
	return nil
}

// FromDistgit reports the full pipeline for a dist-git repo name.
//
// Traversal: GitHub <- Distgit -> Brew -> CDN -> Delivery.
func (r *Resolver) FromDistgit(ctx context.Context, sink datatypes.OutputSink, distgit, version string) error {
	done := observeResolution("distgit")
	rc := datatypes.NewReleaseContext(version)

	exists, err := r.prober.DistgitRepoExists(ctx, distgit)
	if err != nil {
		return done(r.fail(sink, "distgit", "", err))
	}
	if !exists {
		sink.Say(fmt.Sprintf("No distgit repo with name *%s* exists. Try again\n"+
			"Example format: *what is the image pipeline for distgit `ironic`*", distgit))
		done(nil)
		return nil
	}
	sink.Say(fetchingNotice)

	var payload strings.Builder
	githubRepo, err := r.distgitToGithub(ctx, distgit, rc)
	if err != nil {
		return done(r.fail(sink, "distgit", payload.String(), err))
	}
	r.upstreamLines(&payload, githubRepo)
	r.distgitLine(&payload, distgit)

	if err := r.distgitToDelivery(ctx, &payload, distgit, rc); err != nil {
		return done(r.fail(sink, "distgit", payload.String(), err))
	}

	sink.Say(payload.String())
	done(nil)
	return nil
}

// FromBrew reports the full pipeline for a brew package name.
//
// Traversal: GitHub <- Distgit <- Brew -> CDN -> Delivery.
func (r *Resolver) FromBrew(ctx context.Context, sink datatypes.OutputSink, brewName, version string) error {
	done := observeResolution("brew")
	rc := datatypes.NewReleaseContext(version)

	brewID, err := r.koji.PackageID(ctx, brewName)
	if err != nil {
		if datatypes.Classify(err) == datatypes.ClassNotFound {
			sink.Say(fmt.Sprintf("No brew package with name *%s* exists. Try again\n"+
				"Example format: *what is the image pipeline for package `ironic-container`*", brewName))
			done(nil)
			return nil
		}
		return done(r.fail(sink, "brew", "", err))
	}
	sink.Say(fetchingNotice)

	var payload strings.Builder
	if err := r.brewToGithubLines(ctx, &payload, brewName, rc); err != nil {
		return done(r.fail(sink, "brew", payload.String(), err))
	}
	r.brewLine(&payload, brewID, brewName)

	if err := r.brewToDelivery(ctx, &payload, brewName, rc); err != nil {
		return done(r.fail(sink, "brew", payload.String(), err))
	}

	sink.Say(payload.String())
	done(nil)
	return nil
}

// FromCDN reports the full pipeline for a CDN repo name.
//
// Traversal: GitHub <- Distgit <- Brew <- CDN -> Delivery.
func (r *Resolver) FromCDN(ctx context.Context, sink datatypes.OutputSink, cdnName, version string) error {
	done := observeResolution("cdn")
	rc := datatypes.NewReleaseContext(version)

	if _, err := r.errata.CdnRepoDetails(ctx, cdnName); err != nil {
		if datatypes.Classify(err) == datatypes.ClassNotFound {
			sink.Say(fmt.Sprintf("No CDN repo with name *%s* exists. Try again\n"+
				"Example format: *what is the image pipeline for cdn `redhat-openshift4-ose-ironic-rhel8`*", cdnName))
			done(nil)
			return nil
		}
		return done(r.fail(sink, "cdn", "", err))
	}
	sink.Say(fetchingNotice)

	var payload strings.Builder

	brewName, err := r.cdnToBrew(ctx, cdnName)
	if err != nil {
		return done(r.fail(sink, "cdn", payload.String(), err))
	}
	brewID, err := r.koji.PackageID(ctx, brewName)
	if err != nil {
		return done(r.fail(sink, "cdn", payload.String(), err))
	}
	r.brewLine(&payload, brewID, brewName)

	if err := r.brewToGithubLines(ctx, &payload, brewName, rc); err != nil {
		return done(r.fail(sink, "cdn", payload.String(), err))
	}

	if err := r.cdnLines(ctx, &payload, cdnName, rc); err != nil {
		return done(r.fail(sink, "cdn", payload.String(), err))
	}
	if err := r.cdnDeliveryLines(ctx, &payload, cdnName); err != nil {
		return done(r.fail(sink, "cdn", payload.String(), err))
	}

	sink.Say(payload.String())
	done(nil)
	return nil
}

// FromDelivery reports the full pipeline for a delivery repo name. Bare
// names are namespaced under openshift4/.
//
// Traversal: GitHub <- Distgit <- Brew <- CDN <- Delivery.
func (r *Resolver) FromDelivery(ctx context.Context, sink datatypes.OutputSink, deliveryRepo, version string) error {
	done := observeResolution("delivery")
	rc := datatypes.NewReleaseContext(version)

	if !strings.Contains(deliveryRepo, "/") {
		deliveryRepo = "openshift4/" + deliveryRepo
	}

	deliveryID, err := r.pyxis.RepoID(ctx, deliveryRepo)
	if err != nil {
		if datatypes.Classify(err) == datatypes.ClassNotFound {
			sink.Say(fmt.Sprintf("No delivery repo with name *%s* exists. Try again\n"+
				"Example format: *what is the image pipeline for image `openshift4/ose-ironic-rhel8`*", deliveryRepo))
			done(nil)
			return nil
		}
		return done(r.fail(sink, "delivery", "", err))
	}
	sink.Say(fetchingNotice)

	var payload strings.Builder

	brewName, err := r.brewFromDelivery(ctx, deliveryRepo)
	if err != nil {
		return done(r.fail(sink, "delivery", payload.String(), err))
	}
	brewID, err := r.koji.PackageID(ctx, brewName)
	if err != nil {
		return done(r.fail(sink, "delivery", payload.String(), err))
	}

	if err := r.brewToGithubLines(ctx, &payload, brewName, rc); err != nil {
		return done(r.fail(sink, "delivery", payload.String(), err))
	}
	r.brewLine(&payload, brewID, brewName)

	cdnName, err := r.brewToCdnDelivery(ctx, brewName, rc.Variant, deliveryRepo)
	if err != nil {
		return done(r.fail(sink, "delivery", payload.String(), err))
	}
	if err := r.cdnLines(ctx, &payload, cdnName, rc); err != nil {
		return done(r.fail(sink, "delivery", payload.String(), err))
	}

	r.deliveryLine(&payload, deliveryID, deliveryRepo)

	sink.Say(payload.String())
	done(nil)
	return nil
}

// =============================================================================
// Composite segments shared between entry points
// =============================================================================

// distgitToDelivery appends everything downstream of a dist-git: payload
// tag, brew build, bundle annotations, then CDN and delivery repos.
func (r *Resolver) distgitToDelivery(ctx context.Context, payload *strings.Builder, distgit string, rc datatypes.ReleaseContext) error {
	tag, err := r.meta.ImageStreamTag(ctx, distgit, rc.Version)
	if err != nil {
		return err
	}
	if tag != "" {
		fmt.Fprintf(payload, "Payload tag: *%s* \n", tag)
	}

	brewName, err := r.distgitToBrew(ctx, distgit, rc)
	if err != nil {
		return err
	}
	brewID, err := r.koji.PackageID(ctx, brewName)
	if err != nil {
		return err
	}
	r.brewLine(payload, brewID, brewName)

	if err := r.bundleLines(ctx, payload, distgit, brewName, rc); err != nil {
		return err
	}

	return r.brewToDelivery(ctx, payload, brewName, rc)
}

// brewToGithubLines appends the upstream and dist-git lines reachable from a
// brew package, plus bundle annotations and the payload tag.
func (r *Resolver) brewToGithubLines(ctx context.Context, payload *strings.Builder, brewName string, rc datatypes.ReleaseContext) error {
	distgit, err := r.brewToDistgit(ctx, brewName, rc)
	if err != nil {
		return err
	}

	githubRepo, err := r.distgitToGithub(ctx, distgit, rc)
	if err != nil {
		return err
	}
	r.upstreamLines(payload, githubRepo)
	r.distgitLine(payload, distgit)

	if err := r.bundleLines(ctx, payload, distgit, brewName, rc); err != nil {
		return err
	}

	tag, err := r.meta.ImageStreamTag(ctx, distgit, rc.Version)
	if err != nil {
		return err
	}
	if tag != "" {
		fmt.Fprintf(payload, "Payload tag: *%s* \n", tag)
	}
	return nil
}

// brewToDelivery appends the CDN and delivery lines for every CDN repo the
// brew package maps to under the release variant.
func (r *Resolver) brewToDelivery(ctx context.Context, payload *strings.Builder, brewName string, rc datatypes.ReleaseContext) error {
	cdnNames, err := r.brewToCDN(ctx, brewName, rc.Variant)
	if err != nil {
		return err
	}
	if len(cdnNames) > 1 {
		payload.WriteString("\n *Found more than one Brew to CDN mappings:*\n\n")
	}
	for _, cdnName := range cdnNames {
		if err := r.cdnLines(ctx, payload, cdnName, rc); err != nil {
			return err
		}
		if err := r.cdnDeliveryLines(ctx, payload, cdnName); err != nil {
			return err
		}
	}
	return nil
}

// cdnLines appends the CDN repo line, linking to its page under the owning
// product version.
func (r *Resolver) cdnLines(ctx context.Context, payload *strings.Builder, cdnName string, rc datatypes.ReleaseContext) error {
	cdnID, err := r.cdnRepoID(ctx, cdnName)
	if err != nil {
		return err
	}
	variantID, err := r.variantID(ctx, cdnName, rc.Variant)
	if err != nil {
		return err
	}
	productID, err := r.errata.ProductID(ctx, variantID)
	if err != nil {
		return err
	}
	fmt.Fprintf(payload, "CDN repo: <%s/product_versions/%d/cdn_repos/%d|*%s*>\n",
		r.links.ErrataURL, productID, cdnID, cdnName)
	return nil
}

// cdnDeliveryLines appends the delivery repo line for a CDN repo, linking to
// its Comet page.
func (r *Resolver) cdnDeliveryLines(ctx context.Context, payload *strings.Builder, cdnName string) error {
	deliveryRepo, err := r.cdnToDelivery(ctx, cdnName)
	if err != nil {
		return err
	}
	deliveryID, err := r.pyxis.RepoID(ctx, deliveryRepo)
	if err != nil {
		return err
	}
	r.deliveryLine(payload, deliveryID, deliveryRepo)
	return nil
}

// bundleLines appends the bundle component and bundle dist-git lines for
// operator images that need a bundle build.
func (r *Resolver) bundleLines(ctx context.Context, payload *strings.Builder, distgit, brewName string, rc datatypes.ReleaseContext) error {
	required, err := r.meta.RequiresBundleBuild(ctx, distgit, rc.Version)
	if err != nil {
		return err
	}
	if !required {
		return nil
	}

	bundleComponent, err := r.meta.BundleOverride(ctx, distgit, rc.Version)
	if err != nil {
		return err
	}
	if bundleComponent == "" {
		// Default: brew name minus its last dash segment.
		parts := strings.Split(brewName, "-")
		bundleComponent = strings.Join(parts[:len(parts)-1], "-") + "-metadata-component"
	}

	fmt.Fprintf(payload, "Bundle Component: *%s*\n", bundleComponent)
	fmt.Fprintf(payload, "Bundle Distgit: *%s-bundle*\n", distgit)
	return nil
}

// =============================================================================
// Failure reporting
// =============================================================================

// fail delivers the failure to the sink along with whatever lines were
// already assembled, and mirrors the diagnostic to the monitoring sink.
func (r *Resolver) fail(sink datatypes.OutputSink, stage, payload string, err error) error {
	class := datatypes.Classify(err)
	r.logger.Error("pipeline resolution failed",
		slog.String("stage", stage),
		slog.String("class", class.String()),
		slog.String("error", err.Error()),
	)

	switch class {
	case datatypes.ClassNotFound, datatypes.ClassAmbiguous, datatypes.ClassNullData:
		sink.Say(payload + "\n" + err.Error())
		sink.MonitoringSay("ERROR: " + err.Error())
	case datatypes.ClassAuth, datatypes.ClassInternal:
		sink.Say(err.Error() + ". Contact the ART Team")
		sink.MonitoringSay("ERROR: " + err.Error())
	default:
		sink.Say("Unknown error. Contact the ART team.")
		sink.MonitoringSay("ERROR: Unclassified: " + err.Error())
		sink.Snippet(err.Error(),
			"Error details attached. Please contact the ART team",
			fmt.Sprintf("error-details-%d.txt", time.Now().Unix()))
	}
	return err
}

// observeResolution starts the metrics clock for one entry point and returns
// the closer that records outcome and duration.
func observeResolution(stage string) func(error) error {
	start := time.Now()
	return func(err error) error {
		outcome := "success"
		if err != nil {
			outcome = datatypes.Classify(err).String()
		}
		resolutionsTotal.WithLabelValues(stage, outcome).Inc()
		resolutionDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		return err
	}
}
