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
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openshift-eng/artbot/services/pipeline/chat"
	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// ErrorResponse is the JSON error body for all pipeline endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ResolveResponse is the JSON body for resolution endpoints. Messages hold
// the user-facing report in delivery order; Monitoring holds diagnostics
// meant for the operations channel.
type ResolveResponse struct {
	RequestID  string   `json:"request_id"`
	Stage      string   `json:"stage"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Messages   []string `json:"messages"`
	Monitoring []string `json:"monitoring,omitempty"`
	ErrorClass string   `json:"error_class,omitempty"`
}

// pipelineResolver is the traversal surface handlers need; satisfied by
// *resolver.Resolver, narrowed for tests.
type pipelineResolver interface {
	FromGitHub(ctx context.Context, sink datatypes.OutputSink, name, version string) error
	FromDistgit(ctx context.Context, sink datatypes.OutputSink, name, version string) error
	FromBrew(ctx context.Context, sink datatypes.OutputSink, name, version string) error
	FromCDN(ctx context.Context, sink datatypes.OutputSink, name, version string) error
	FromDelivery(ctx context.Context, sink datatypes.OutputSink, name, version string) error
}

// Handlers holds the HTTP handlers for the pipeline service.
type Handlers struct {
	service  *Service
	resolver pipelineResolver
}

// NewHandlers creates the handlers for a wired service.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service, resolver: service.Resolver()}
}

// collectingSink accumulates sink output for one request. Not safe for
// concurrent use; each request gets its own.
type collectingSink struct {
	messages   []string
	monitoring []string
}

func (s *collectingSink) Say(message string) {
	s.messages = append(s.messages, message)
}

func (s *collectingSink) MonitoringSay(message string) {
	s.monitoring = append(s.monitoring, message)
}

func (s *collectingSink) Snippet(payload, intro, filename string) {
	s.messages = append(s.messages, intro+"\n"+payload)
}

// getOrCreateRequestID returns the X-Request-ID header or generates one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// classToStatus maps a resolution outcome to an HTTP status.
func classToStatus(class datatypes.Class) int {
	switch class {
	case datatypes.ClassNotFound:
		return http.StatusNotFound
	case datatypes.ClassAmbiguous:
		return http.StatusConflict
	case datatypes.ClassNullData, datatypes.ClassAuth, datatypes.ClassInternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type traversal func(ctx context.Context, sink datatypes.OutputSink, name, version string) error

// handleResolve runs one traversal and writes the collected report.
func (h *Handlers) handleResolve(c *gin.Context, stage string, run traversal) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleFrom"+stage)

	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "name parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	version := c.Query("version")
	if version == "" {
		version = h.service.Settings().DefaultVersion
	}

	logger.Info("resolving pipeline",
		slog.String("stage", stage),
		slog.String("name", name),
		slog.String("version", version),
	)

	sink := &collectingSink{}
	err := run(c.Request.Context(), sink, name, version)

	response := ResolveResponse{
		RequestID:  requestID,
		Stage:      stage,
		Name:       name,
		Version:    version,
		Messages:   sink.messages,
		Monitoring: sink.monitoring,
	}
	status := http.StatusOK
	if err != nil {
		class := datatypes.Classify(err)
		response.ErrorClass = class.String()
		status = classToStatus(class)
	}
	c.JSON(status, response)
}

// HandleFromGitHub handles GET /v1/pipeline/github.
//
// Query Parameters:
//
//	name: GitHub repo name (required)
//	version: release version (optional, defaults from settings)
//
// Response:
//
//	200 OK: ResolveResponse with the full report
//	400 Bad Request: missing name
//	404/409/502: ResolveResponse with error_class and any partial report
func (h *Handlers) HandleFromGitHub(c *gin.Context) {
	h.handleResolve(c, "github", h.resolver.FromGitHub)
}

// HandleFromDistgit handles GET /v1/pipeline/distgit.
func (h *Handlers) HandleFromDistgit(c *gin.Context) {
	h.handleResolve(c, "distgit", h.resolver.FromDistgit)
}

// HandleFromBrew handles GET /v1/pipeline/brew.
func (h *Handlers) HandleFromBrew(c *gin.Context) {
	h.handleResolve(c, "brew", h.resolver.FromBrew)
}

// HandleFromCDN handles GET /v1/pipeline/cdn.
func (h *Handlers) HandleFromCDN(c *gin.Context) {
	h.handleResolve(c, "cdn", h.resolver.FromCDN)
}

// HandleFromDelivery handles GET /v1/pipeline/delivery.
func (h *Handlers) HandleFromDelivery(c *gin.Context) {
	h.handleResolve(c, "delivery", h.resolver.FromDelivery)
}

// ChatRequest is the body for POST /v1/pipeline/chat.
type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

// HandleChat handles POST /v1/pipeline/chat.
//
// Description:
//
//	Routes a plain-text command ("what is the image pipeline for github
//	ironic-image in 4.10") to the matching resolution endpoint and returns
//	the same ResolveResponse those endpoints produce.
//
// Response:
//
//	200 OK: ResolveResponse
//	400 Bad Request: empty body or no command form matched
func (h *Handlers) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text field is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	cmd, ok := chat.Parse(req.Text)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "message did not match any pipeline command",
			Code:  "UNMATCHED_COMMAND",
		})
		return
	}

	// Rewrite the query and reuse the stage handlers.
	q := c.Request.URL.Query()
	q.Set("name", cmd.Name)
	if cmd.Version != "" {
		q.Set("version", cmd.Version)
	}
	c.Request.URL.RawQuery = q.Encode()

	switch cmd.Stage {
	case chat.StageGitHub:
		h.HandleFromGitHub(c)
	case chat.StageDistgit:
		h.HandleFromDistgit(c)
	case chat.StageBrew:
		h.HandleFromBrew(c)
	case chat.StageCDN:
		h.HandleFromCDN(c)
	case chat.StageDelivery:
		h.HandleFromDelivery(c)
	}
}

// HandleHealth handles GET /v1/pipeline/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"cache_entries": h.service.CacheLen(),
	})
}
