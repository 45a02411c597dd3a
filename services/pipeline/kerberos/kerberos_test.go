// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kerberos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/executor"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

type fakeRefresher struct {
	calls int32
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

func TestSessionRetriesOnceAfterRefresh(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	refresher := &fakeRefresher{}
	s := NewSession("errata", server.Client(), refresher, nil)

	resp, err := s.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&refresher.calls); got != 1 {
		t.Errorf("refresh called %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestSessionPersistent401IsAuthError(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	refresher := &fakeRefresher{}
	s := NewSession("errata", server.Client(), refresher, nil)

	_, err := s.Get(context.Background(), server.URL)
	var authErr *datatypes.KerberosAuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want KerberosAuthenticationError", err)
	}
	// Exactly one refresh and exactly one retry: two requests total.
	if got := atomic.LoadInt32(&refresher.calls); got != 1 {
		t.Errorf("refresh called %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestSessionRefreshFailureIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	refresher := &fakeRefresher{err: errors.New("keytab missing")}
	s := NewSession("pyxis", server.Client(), refresher, nil)

	_, err := s.Get(context.Background(), server.URL)
	var authErr *datatypes.KerberosAuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want KerberosAuthenticationError", err)
	}
	if authErr.Service != "pyxis" {
		t.Errorf("Service = %q", authErr.Service)
	}
}

func TestSessionNoRefresherSurfacesImmediately(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := NewSession("errata", server.Client(), nil, nil)
	_, err := s.Get(context.Background(), server.URL)
	if datatypes.Classify(err) != datatypes.ClassAuth {
		t.Fatalf("error = %v, want auth class", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times, want 1 (no retry without refresher)", got)
	}
}

func TestSessionPassesThroughNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	s := NewSession("errata", server.Client(), &fakeRefresher{}, nil)
	resp, err := s.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 passed through", resp.StatusCode)
	}
}

type fakeKinitRunner struct {
	calls int
	args  []string
	res   *executor.Result
	err   error
}

func (f *fakeKinitRunner) run(ctx context.Context, name string, args ...string) (*executor.Result, error) {
	f.calls++
	f.args = append([]string{name}, args...)
	return f.res, f.err
}

func TestKinitRefresher(t *testing.T) {
	runner := &fakeKinitRunner{res: &executor.Result{}}
	r := &KinitRefresher{keytab: "/tmp/keytab/keytab", principal: "ocp-build@EXAMPLE.COM", runner: runner}

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	want := []string{"kinit", "-kt", "/tmp/keytab/keytab", "ocp-build@EXAMPLE.COM"}
	if len(runner.args) != len(want) {
		t.Fatalf("args = %v, want %v", runner.args, want)
	}
	for i := range want {
		if runner.args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, runner.args[i], want[i])
		}
	}
}

func TestKinitRefresherNoKeytabIsNoop(t *testing.T) {
	runner := &fakeKinitRunner{}
	r := &KinitRefresher{runner: runner}

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if runner.calls != 0 {
		t.Errorf("kinit invoked %d times without keytab, want 0", runner.calls)
	}
}
