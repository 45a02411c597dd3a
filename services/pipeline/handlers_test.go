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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

type fakeResolver struct {
	stage   string
	name    string
	version string
	err     error
}

func (f *fakeResolver) run(stage string, sink datatypes.OutputSink, name, version string) error {
	f.stage = stage
	f.name = name
	f.version = version
	sink.Say("Fetching data. Please wait...")
	if f.err != nil {
		sink.Say("partial report\n" + f.err.Error())
		sink.MonitoringSay("ERROR: " + f.err.Error())
		return f.err
	}
	sink.Say("Production dist-git repo: <https://pkgs.devel.redhat.com/cgit/containers/" + name + "|*" + name + "*>")
	return nil
}

func (f *fakeResolver) FromGitHub(ctx context.Context, sink datatypes.OutputSink, name, version string) error {
	return f.run("github", sink, name, version)
}

func (f *fakeResolver) FromDistgit(ctx context.Context, sink datatypes.OutputSink, name, version string) error {
	return f.run("distgit", sink, name, version)
}

func (f *fakeResolver) FromBrew(ctx context.Context, sink datatypes.OutputSink, name, version string) error {
	return f.run("brew", sink, name, version)
}

func (f *fakeResolver) FromCDN(ctx context.Context, sink datatypes.OutputSink, name, version string) error {
	return f.run("cdn", sink, name, version)
}

func (f *fakeResolver) FromDelivery(ctx context.Context, sink datatypes.OutputSink, name, version string) error {
	return f.run("delivery", sink, name, version)
}

func newTestRouter(t *testing.T, fake *fakeResolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := DefaultServiceConfig()
	if err != nil {
		t.Fatalf("DefaultServiceConfig: %v", err)
	}
	service, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	handlers := NewHandlers(service)
	handlers.resolver = fake

	router := gin.New()
	RegisterRoutes(router.Group("/v1"), handlers)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleResolveSuccess(t *testing.T) {
	fake := &fakeResolver{}
	router := newTestRouter(t, fake)

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/distgit?name=ironic&version=4.10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Stage != "distgit" || resp.Name != "ironic" || resp.Version != "4.10" {
		t.Errorf("unexpected envelope %+v", resp)
	}
	if resp.RequestID == "" {
		t.Error("missing request id")
	}
	if len(resp.Messages) != 2 || resp.Messages[0] != "Fetching data. Please wait..." {
		t.Errorf("unexpected messages %v", resp.Messages)
	}
	if resp.ErrorClass != "" {
		t.Errorf("unexpected error class %q", resp.ErrorClass)
	}
}

func TestHandleResolveDefaultVersion(t *testing.T) {
	fake := &fakeResolver{}
	router := newTestRouter(t, fake)

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/brew?name=ironic-container", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if fake.version != "4.10" {
		t.Errorf("default version = %q", fake.version)
	}
}

func TestHandleResolveMissingName(t *testing.T) {
	router := newTestRouter(t, &fakeResolver{})

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/github", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "MISSING_PARAMETER" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestHandleResolveNotFoundKeepsReport(t *testing.T) {
	fake := &fakeResolver{err: &datatypes.CdnFromBrewNotFound{Brew: "ironic-container", Variant: "8Base-RHOSE-4.10"}}
	router := newTestRouter(t, fake)

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/brew?name=ironic-container&version=4.10", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ErrorClass != "not_found" {
		t.Errorf("error class = %q", resp.ErrorClass)
	}
	if len(resp.Messages) == 0 || len(resp.Monitoring) != 1 {
		t.Errorf("report lost: messages=%v monitoring=%v", resp.Messages, resp.Monitoring)
	}
}

func TestHandleResolveAuthFailureIsBadGateway(t *testing.T) {
	fake := &fakeResolver{err: &datatypes.KerberosAuthenticationError{Service: "errata"}}
	router := newTestRouter(t, fake)

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/cdn?name=some-cdn", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleChatRoutesCommand(t *testing.T) {
	fake := &fakeResolver{}
	router := newTestRouter(t, fake)

	w := doRequest(t, router, http.MethodPost, "/v1/pipeline/chat",
		`{"text": "what is the image pipeline for github ironic-image in 4.9"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if fake.stage != "github" || fake.name != "ironic-image" || fake.version != "4.9" {
		t.Errorf("routed to %s/%s/%s", fake.stage, fake.name, fake.version)
	}
}

func TestHandleChatUnmatchedCommand(t *testing.T) {
	router := newTestRouter(t, &fakeResolver{})

	w := doRequest(t, router, http.MethodPost, "/v1/pipeline/chat", `{"text": "tell me a joke"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "UNMATCHED_COMMAND" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, &fakeResolver{})

	w := doRequest(t, router, http.MethodGet, "/v1/pipeline/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
