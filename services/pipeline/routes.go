// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all pipeline routes with the router.
//
// Description:
//
//	Registers all /v1/pipeline/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Resolution Endpoints:
//
//	GET /v1/pipeline/github?name=X&version=V - Resolve from a GitHub repo
//	GET /v1/pipeline/distgit?name=X&version=V - Resolve from a dist-git repo
//	GET /v1/pipeline/brew?name=X&version=V - Resolve from a brew package
//	GET /v1/pipeline/cdn?name=X&version=V - Resolve from a CDN repo
//	GET /v1/pipeline/delivery?name=X&version=V - Resolve from a delivery repo
//
// Chat Endpoint:
//
//	POST /v1/pipeline/chat - Route a plain-text pipeline command
//
// Health Endpoints:
//
//	GET /v1/pipeline/health - Health check
//
// Example:
//
//	cfg, _ := pipeline.DefaultServiceConfig()
//	service, _ := pipeline.NewService(cfg)
//	handlers := pipeline.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	pipeline.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	pipeline := rg.Group("/pipeline")
	{
		// Stage resolution
		pipeline.GET("/github", handlers.HandleFromGitHub)
		pipeline.GET("/distgit", handlers.HandleFromDistgit)
		pipeline.GET("/brew", handlers.HandleFromBrew)
		pipeline.GET("/cdn", handlers.HandleFromCDN)
		pipeline.GET("/delivery", handlers.HandleFromDelivery)

		// Plain-text command routing
		pipeline.POST("/chat", handlers.HandleChat)

		// Health checks
		pipeline.GET("/health", handlers.HandleHealth)
	}
}
