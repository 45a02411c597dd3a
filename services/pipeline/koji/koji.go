// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package koji resolves brew package names and NVRs against a koji hub's
// XML-RPC API. Only the anonymous read calls the resolver needs are exposed.
package koji

import (
	"context"
	"fmt"

	"github.com/kolo/xmlrpc"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

// rpcCaller is the XML-RPC call surface, narrowed for tests.
type rpcCaller interface {
	Call(serviceMethod string, args any, reply any) error
}

// Client answers package and build lookups against one koji hub.
//
// Thread Safety: safe for concurrent use; the underlying XML-RPC client
// multiplexes over a shared http.Client.
type Client struct {
	rpc rpcCaller
}

// NewClient dials the hub endpoint, e.g.
// https://brewhub.engineering.redhat.com/brewhub.
func NewClient(hubURL string) (*Client, error) {
	rpc, err := xmlrpc.NewClient(hubURL, nil)
	if err != nil {
		return nil, fmt.Errorf("koji: dialing hub %s: %w", hubURL, err)
	}
	return &Client{rpc: rpc}, nil
}

// Build is the subset of a koji build record the resolver reports on.
type Build struct {
	ID          int    `xmlrpc:"id"`
	PackageName string `xmlrpc:"package_name"`
	Version     string `xmlrpc:"version"`
	Release     string `xmlrpc:"release"`
}

// PackageID resolves a brew package name to its numeric id.
//
// A hub that cannot be reached is an internal koji failure; a hub that
// answers with no id means the package name is unknown.
func (c *Client) PackageID(ctx context.Context, brewName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id int
	if err := c.rpc.Call("getPackageID", []any{brewName}, &id); err != nil {
		return 0, &datatypes.KojiClientError{Err: err}
	}
	if id == 0 {
		return 0, &datatypes.BrewIDNotFound{Brew: brewName}
	}
	return id, nil
}

// BuildForNVR fetches the build record for a name-version-release string.
func (c *Client) BuildForNVR(ctx context.Context, nvr string) (*Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var build Build
	if err := c.rpc.Call("getBuild", []any{nvr}, &build); err != nil {
		return nil, &datatypes.KojiClientError{Err: err}
	}
	if build.ID == 0 {
		return nil, &datatypes.BrewNVRNotFound{NVR: nvr}
	}
	return &build, nil
}
