// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline exposes the release pipeline identity resolver as an HTTP
// service: given an identifier at one stage of the pipeline
// (GitHub, dist-git, brew, CDN, delivery), report the identifiers at every
// other stage.
package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openshift-eng/artbot/services/pipeline/buildmeta"
	"github.com/openshift-eng/artbot/services/pipeline/config"
	"github.com/openshift-eng/artbot/services/pipeline/errata"
	"github.com/openshift-eng/artbot/services/pipeline/kerberos"
	"github.com/openshift-eng/artbot/services/pipeline/koji"
	"github.com/openshift-eng/artbot/services/pipeline/pyxis"
	"github.com/openshift-eng/artbot/services/pipeline/resolver"
	"github.com/openshift-eng/artbot/services/pipeline/scm"
)

// ServiceConfig carries everything NewService needs.
type ServiceConfig struct {
	Settings config.Settings
	Logger   *slog.Logger
}

// DefaultServiceConfig loads the embedded default settings.
func DefaultServiceConfig() (ServiceConfig, error) {
	settings, err := config.Load("")
	if err != nil {
		return ServiceConfig{}, err
	}
	return ServiceConfig{Settings: settings, Logger: slog.Default()}, nil
}

// Service owns the resolver and its collaborators.
//
// Thread Safety: safe for concurrent use.
type Service struct {
	settings config.Settings
	resolver *resolver.Resolver
	cache    *buildmeta.Cache
	logger   *slog.Logger
}

// NewService wires the full resolution stack: memoization cache, doozer
// runner, build-data fetcher, the three authenticated service clients, and
// the source-repo prober.
//
// A missing Kerberos environment is not fatal: the service falls back to
// unauthenticated HTTP and ticket-protected lookups fail at request time
// with an auth-classed error.
func NewService(cfg ServiceConfig) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := cfg.Settings

	cache, err := buildmeta.NewCache(settings.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building cache: %w", err)
	}

	doozer := buildmeta.NewDoozer(settings.DoozerBinary, settings.DoozerDataPath)
	fetcher := buildmeta.NewFetcher(settings.BuildDataURL, doozer, cache, &http.Client{Timeout: 30 * time.Second})

	var doer kerberos.Doer
	doer, err = kerberos.NewSPNEGODoer(settings.Kerberos.Krb5Config)
	if err != nil {
		logger.Warn("kerberos unavailable, using unauthenticated HTTP",
			slog.String("error", err.Error()))
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	refresher := kerberos.NewKinitRefresher(settings.Kerberos.Keytab, settings.Kerberos.Principal)

	errataSession := kerberos.NewSession("errata", doer, refresher,
		rate.NewLimiter(rate.Limit(settings.ErrataRateLimit), 1))
	pyxisSession := kerberos.NewSession("pyxis", doer, refresher, nil)

	kojiClient, err := koji.NewClient(settings.BrewHubURL)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building koji client: %w", err)
	}

	links := resolver.Links{
		GithubURL:        settings.GitHubURL,
		GithubOrg:        settings.GitHubOrg,
		GithubPrivateOrg: settings.GitHubPrivateOrg,
		CgitURL:          settings.CgitURL,
		BrewWebURL:       settings.BrewWebURL,
		ErrataURL:        settings.ErrataURL,
		CometURL:         settings.CometURL,
	}

	res := resolver.NewResolver(
		fetcher,
		errata.NewClient(settings.ErrataURL, errataSession),
		kojiClient,
		pyxis.NewClient(settings.PyxisURL, pyxisSession),
		scm.NewProber(settings.GitHubURL, settings.GitHubOrg, settings.CgitURL),
		links,
		logger,
	)

	return &Service{
		settings: settings,
		resolver: res,
		cache:    cache,
		logger:   logger,
	}, nil
}

// Resolver returns the wired resolver.
func (s *Service) Resolver() *resolver.Resolver { return s.resolver }

// Settings returns the effective settings.
func (s *Service) Settings() config.Settings { return s.settings }

// CacheLen reports the number of memoized entries, for the health endpoint.
func (s *Service) CacheLen() int { return s.cache.Len() }
