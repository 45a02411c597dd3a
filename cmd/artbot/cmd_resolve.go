// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openshift-eng/artbot/services/pipeline"
	"github.com/openshift-eng/artbot/services/pipeline/config"
	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// stdioSink writes report messages to stdout and diagnostics to stderr.
type stdioSink struct{}

func (stdioSink) Say(message string) {
	fmt.Println(message)
}

func (stdioSink) MonitoringSay(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (stdioSink) Snippet(payload, intro, filename string) {
	fmt.Println(intro)
	fmt.Println(payload)
}

func newResolveCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "resolve <stage> <name>",
		Short: "Resolve a pipeline identity once and print the report",
		Long: "Resolve an identifier at one pipeline stage into the identifiers at every\n" +
			"other stage. Stage is one of: github, distgit, package, cdn, image.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args[0], args[1], version)
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "release version (defaults from settings)")
	return cmd
}

func runResolve(ctx context.Context, stage, name, version string) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	service, err := pipeline.NewService(pipeline.ServiceConfig{
		Settings: settings,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}
	if version == "" {
		version = settings.DefaultVersion
	}

	res := service.Resolver()
	var sink datatypes.OutputSink = stdioSink{}

	switch stage {
	case "github":
		return res.FromGitHub(ctx, sink, name, version)
	case "distgit":
		return res.FromDistgit(ctx, sink, name, version)
	case "package", "brew":
		return res.FromBrew(ctx, sink, name, version)
	case "cdn":
		return res.FromCDN(ctx, sink, name, version)
	case "image", "delivery":
		return res.FromDelivery(ctx, sink, name, version)
	default:
		return fmt.Errorf("unknown stage %q: expected github, distgit, package, cdn or image", stage)
	}
}
