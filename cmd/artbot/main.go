// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command artbot answers release pipeline questions: given an identifier at
// one stage of the image pipeline
//
//	GitHub -> Distgit -> Brew -> CDN -> Delivery
//
// it reports the identifiers at every other stage.
//
// Usage:
//
//	# One-shot resolution from the command line
//	artbot resolve github ironic-image --version 4.10
//	artbot resolve package ironic-container
//
//	# HTTP server
//	artbot serve --port 8080
//
// Example requests against the server:
//
//	curl 'http://localhost:8080/v1/pipeline/distgit?name=ironic&version=4.10'
//	curl -X POST http://localhost:8080/v1/pipeline/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"text": "what is the image pipeline for github ironic-image"}'
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// settingsPath holds the --settings flag value, shared by all subcommands.
var settingsPath string

func main() {
	// Optional .env for local development; the environment wins when both
	// define a key.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	root := &cobra.Command{
		Use:   "artbot",
		Short: "Resolve OpenShift release pipeline identities",
		Long: "artbot resolves an identifier at any stage of the image release pipeline\n" +
			"(GitHub, dist-git, brew, CDN, delivery) into the identifiers at every\n" +
			"other stage.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to a YAML settings file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newResolveCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
