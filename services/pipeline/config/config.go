// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads pipeline resolver settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//  1. Embedded defaults (defaults.yaml)
//  2. An optional YAML settings file
//  3. ARTBOT_* environment variables
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSettingsYAML []byte

// KerberosSettings locate the credentials used for ticket-authenticated
// services and for refreshing an expired ticket.
type KerberosSettings struct {
	// Keytab is the path to the keytab used by Refresh. Empty disables
	// refresh (development environments carry a ticket cache instead).
	Keytab string `yaml:"keytab"`

	// Principal is the principal name the keytab authenticates.
	Principal string `yaml:"principal"`

	// Krb5Config is the path to the krb5.conf used by the SPNEGO client.
	Krb5Config string `yaml:"krb5_config"`
}

// Settings holds every externally configurable value of the resolver: service
// endpoints, the doozer invocation, Kerberos credentials, and cache sizing.
//
// Thread Safety: Immutable after Load; safe for concurrent use.
type Settings struct {
	// BuildDataURL is the base URL serving per-version build-recipe
	// documents (raw ocp-build-data).
	BuildDataURL string `yaml:"build_data_url"`

	// CgitURL is the dist-git web frontend used for existence probes and
	// report links.
	CgitURL string `yaml:"cgit_url"`

	// GitHubURL, GitHubOrg and GitHubPrivateOrg locate upstream and private
	// mirrors of component repositories.
	GitHubURL        string `yaml:"github_url"`
	GitHubOrg        string `yaml:"github_org"`
	GitHubPrivateOrg string `yaml:"github_private_org"`

	// BrewHubURL is the build-system XML-RPC endpoint; BrewWebURL is its web
	// frontend used for report links.
	BrewHubURL string `yaml:"brew_hub_url"`
	BrewWebURL string `yaml:"brew_web_url"`

	// ErrataURL is the release-management API root.
	ErrataURL string `yaml:"errata_url"`

	// PyxisURL is the container-catalog API root.
	PyxisURL string `yaml:"pyxis_url"`

	// CometURL is the customer-facing repository browser used for report
	// links.
	CometURL string `yaml:"comet_url"`

	// DoozerBinary is the build-orchestration command invoked for the
	// component/upstream tables. DoozerDataPath, when set, is passed through
	// as --data-path.
	DoozerBinary   string `yaml:"doozer_binary"`
	DoozerDataPath string `yaml:"doozer_data_path"`

	Kerberos KerberosSettings `yaml:"kerberos"`

	// CacheSize bounds the per-process memoization cache.
	CacheSize int `yaml:"cache_size"`

	// ErrataRateLimit is the sustained request rate against the
	// release-management API, per second.
	ErrataRateLimit float64 `yaml:"errata_rate_limit"`

	// DefaultVersion is used when a caller omits the product version.
	DefaultVersion string `yaml:"default_version"`
}

// Load builds Settings from the embedded defaults, an optional settings file,
// and ARTBOT_* environment variables, in that order.
//
// Inputs:
//   - path: YAML settings file. Empty string skips the file layer.
//
// Outputs:
//   - Settings with every field populated.
//   - error if the file cannot be read or either YAML layer is malformed.
func Load(path string) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("config: reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("config: parsing settings file %s: %w", path, err)
		}
	}

	s.applyEnv()

	if s.CacheSize <= 0 {
		s.CacheSize = 512
	}
	if s.ErrataRateLimit <= 0 {
		s.ErrataRateLimit = 5
	}
	return s, nil
}

// applyEnv overrides individual fields from the environment. Only values that
// commonly differ between deployments get a variable; everything else is
// settings-file territory.
func (s *Settings) applyEnv() {
	overrides := map[string]*string{
		"ARTBOT_BUILD_DATA_URL":     &s.BuildDataURL,
		"ARTBOT_CGIT_URL":           &s.CgitURL,
		"ARTBOT_BREW_HUB_URL":       &s.BrewHubURL,
		"ARTBOT_BREW_WEB_URL":       &s.BrewWebURL,
		"ARTBOT_ERRATA_URL":         &s.ErrataURL,
		"ARTBOT_PYXIS_URL":          &s.PyxisURL,
		"ARTBOT_COMET_URL":          &s.CometURL,
		"ARTBOT_DOOZER_BIN":         &s.DoozerBinary,
		"ARTBOT_DOOZER_DATA_PATH":   &s.DoozerDataPath,
		"ARTBOT_KERBEROS_KEYTAB":    &s.Kerberos.Keytab,
		"ARTBOT_KERBEROS_PRINCIPAL": &s.Kerberos.Principal,
		"ARTBOT_KRB5_CONFIG":        &s.Kerberos.Krb5Config,
		"ARTBOT_DEFAULT_VERSION":    &s.DefaultVersion,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("ARTBOT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.CacheSize = n
		}
	}
}
