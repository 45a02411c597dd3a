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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Pipeline Resolution
// =============================================================================

var (
	// resolutionsTotal counts traversals by entry stage and outcome.
	// Labels: stage (github, distgit, brew, cdn, delivery),
	// outcome (success, not_found, ambiguous, null_data, auth, internal, unknown)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artbot",
		Subsystem: "pipeline",
		Name:      "resolutions_total",
		Help:      "Total pipeline resolutions by entry stage and outcome",
	}, []string{"stage", "outcome"})

	// resolutionDuration measures end-to-end traversal latency per entry
	// stage, external service calls included.
	// Labels: stage
	resolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "artbot",
		Subsystem: "pipeline",
		Name:      "resolution_duration_seconds",
		Help:      "End-to-end pipeline resolution latency by entry stage",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})
)
