// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pyxis answers container-catalog questions about delivery repos:
// which brew packages shipped into a repo, and the repo's catalog id.
// Calls are ticket-authenticated through a kerberos.Session.
package pyxis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openshift-eng/artbot/services/pipeline/datatypes"
)

const registryHostname = "registry.access.redhat.com"

type session interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client talks to one Pyxis deployment.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL string
	session session
}

// NewClient wires a Client against baseURL, e.g.
// https://pyxis.engineering.redhat.com/v1.
func NewClient(baseURL string, s session) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), session: s}
}

type imageList struct {
	Data []struct {
		Brew struct {
			Package string `json:"package"`
		} `json:"brew"`
	} `json:"data"`
}

type repositoryList struct {
	Data []struct {
		ID string `json:"_id"`
	} `json:"data"`
}

// BrewPackagesForRepo lists the distinct brew packages whose builds shipped
// into a delivery repo. A repo the catalog does not know is
// BrewFromDeliveryNotFound, as is a known repo with no image records.
func (c *Client) BrewPackagesForRepo(ctx context.Context, deliveryRepo string) ([]string, error) {
	u := fmt.Sprintf("%s/repositories/registry/%s/repository/%s/images",
		c.baseURL, registryHostname, deliveryRepo)

	resp, err := c.session.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &datatypes.BrewFromDeliveryNotFound{DeliveryRepo: deliveryRepo}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pyxis: images for %s: unexpected status %d", deliveryRepo, resp.StatusCode)
	}

	var doc imageList
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("pyxis: decoding images for %s: %w", deliveryRepo, err)
	}

	seen := make(map[string]bool)
	var packages []string
	for _, image := range doc.Data {
		name := image.Brew.Package
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		packages = append(packages, name)
	}
	if len(packages) == 0 {
		return nil, &datatypes.BrewFromDeliveryNotFound{DeliveryRepo: deliveryRepo}
	}
	return packages, nil
}

// RepoID resolves a delivery repo name to its catalog id, used to build the
// repo's Comet page URL.
func (c *Client) RepoID(ctx context.Context, deliveryRepo string) (string, error) {
	u := fmt.Sprintf("%s/repositories?filter=%s",
		c.baseURL, url.QueryEscape(fmt.Sprintf("repository==%s", deliveryRepo)))

	resp, err := c.session.Get(ctx, u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pyxis: repo id for %s: unexpected status %d", deliveryRepo, resp.StatusCode)
	}

	var doc repositoryList
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("pyxis: decoding repo id for %s: %w", deliveryRepo, err)
	}
	if len(doc.Data) == 0 || doc.Data[0].ID == "" {
		return "", &datatypes.DeliveryRepoIDNotFound{DeliveryRepo: deliveryRepo}
	}
	return doc.Data[0].ID, nil
}
