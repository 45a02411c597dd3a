// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kerberos provides the shared machinery for ticket-authenticated
// HTTP services: a SPNEGO-negotiating request doer, a keytab-based ticket
// refresher, and a Session that maps 401 responses to the resolver's auth
// error uniformly, retrying exactly once after a refresh.
package kerberos

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/executor"
	krbclient "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/spnego"
	"golang.org/x/time/rate"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// Doer issues a single HTTP request. Satisfied by *spnego.Client in
// production and by plain test doubles.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Refresher renews the process's Kerberos credentials.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// =============================================================================
// SPNEGO doer
// =============================================================================

// NewSPNEGODoer builds a Doer that negotiates SPNEGO from the ambient ticket
// cache, the Go equivalent of sending a request with HTTPKerberosAuth.
//
// Inputs:
//   - krb5conf: path to krb5.conf ("" uses /etc/krb5.conf).
//
// The ticket cache location follows the usual rules: $KRB5CCNAME (FILE:
// prefix honored) or /tmp/krb5cc_<uid>.
func NewSPNEGODoer(krb5conf string) (Doer, error) {
	if krb5conf == "" {
		krb5conf = "/etc/krb5.conf"
	}
	cfg, err := krbconfig.Load(krb5conf)
	if err != nil {
		return nil, fmt.Errorf("kerberos: loading %s: %w", krb5conf, err)
	}

	ccpath := os.Getenv("KRB5CCNAME")
	ccpath = strings.TrimPrefix(ccpath, "FILE:")
	if ccpath == "" {
		ccpath = fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
	}
	ccache, err := credentials.LoadCCache(ccpath)
	if err != nil {
		return nil, fmt.Errorf("kerberos: loading ticket cache %s: %w", ccpath, err)
	}

	cl, err := krbclient.NewFromCCache(ccache, cfg, krbclient.DisablePAFXFAST(true))
	if err != nil {
		return nil, fmt.Errorf("kerberos: building client from ccache: %w", err)
	}
	return spnego.NewClient(cl, &http.Client{Timeout: 60 * time.Second}, ""), nil
}

// =============================================================================
// Keytab refresh
// =============================================================================

// commandRunner abstracts the kinit invocation for tests.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (*executor.Result, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) (*executor.Result, error) {
	return executor.New(name, args...).Execute(ctx)
}

// KinitRefresher renews the ticket from a mounted keytab, the production
// arrangement. With no keytab configured (development hosts carry an
// interactive ticket), Refresh is a no-op and the retry proceeds with the
// existing cache.
type KinitRefresher struct {
	keytab    string
	principal string
	runner    commandRunner
}

// NewKinitRefresher returns a KinitRefresher for the given keytab and
// principal.
func NewKinitRefresher(keytab, principal string) *KinitRefresher {
	return &KinitRefresher{keytab: keytab, principal: principal, runner: execRunner{}}
}

// Refresh runs kinit against the configured keytab.
func (r *KinitRefresher) Refresh(ctx context.Context) error {
	if r.keytab == "" {
		return nil
	}
	res, err := r.runner.run(ctx, "kinit", "-kt", r.keytab, r.principal)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = strings.TrimSpace(res.Stderr)
		}
		return fmt.Errorf("kerberos: kinit failed: %w (%s)", err, stderr)
	}
	return nil
}

// =============================================================================
// Session
// =============================================================================

// Session issues authenticated GETs against one service. Every 401 becomes a
// datatypes.KerberosAuthenticationError; the first 401 triggers one
// credential refresh and one retry, after which the auth error is surfaced.
// Requests are GET-only by design — retrying after reauth must not replay a
// body.
//
// Thread Safety: safe for concurrent use.
type Session struct {
	service   string
	doer      Doer
	refresher Refresher
	limiter   *rate.Limiter
}

// NewSession wires a Session. refresher may be nil (401s surface
// immediately); limiter may be nil (no client-side rate limiting).
func NewSession(service string, doer Doer, refresher Refresher, limiter *rate.Limiter) *Session {
	return &Session{service: service, doer: doer, refresher: refresher, limiter: limiter}
}

// Get performs an authenticated GET. Non-401 responses are returned as-is,
// including 404s — per-endpoint not-found semantics belong to the caller.
func (s *Session) Get(ctx context.Context, url string) (*http.Response, error) {
	resp, err := s.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if s.refresher == nil {
		return nil, &datatypes.KerberosAuthenticationError{Service: s.service}
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		return nil, &datatypes.KerberosAuthenticationError{Service: s.service, Err: err}
	}

	resp, err = s.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, &datatypes.KerberosAuthenticationError{Service: s.service}
	}
	return resp, nil
}

func (s *Session) do(ctx context.Context, url string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("kerberos: rate limit wait for %s: %w", s.service, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("kerberos: building request for %s: %w", s.service, err)
	}
	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kerberos: %s request failed: %w", s.service, err)
	}
	return resp, nil
}
