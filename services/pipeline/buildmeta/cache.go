// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package buildmeta

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CacheKey identifies one memoized value. Kind separates the table kinds
// (upstream rows, component rows, image recipes), Entity is the per-entity
// component where applicable, and Version scopes everything: cached values
// are never shared across versions.
type CacheKey struct {
	Kind    string
	Entity  string
	Version string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Kind, k.Entity, k.Version)
}

// Cache memoizes version-scoped metadata for the lifetime of the process.
//
// It is an explicit object owned by the Fetcher rather than package-level
// state, so tests control its lifetime and sizing. Reads are lock-free via
// the underlying LRU; concurrent misses for the same key are collapsed to a
// single fill by singleflight. Only successful fills are stored — a failed
// external call is retried on the next request.
//
// Thread Safety: safe for concurrent use.
type Cache struct {
	store *lru.Cache[CacheKey, any]
	group singleflight.Group
}

// NewCache returns a Cache bounded to size entries.
func NewCache(size int) (*Cache, error) {
	store, err := lru.New[CacheKey, any](size)
	if err != nil {
		return nil, fmt.Errorf("buildmeta: creating cache: %w", err)
	}
	return &Cache{store: store}, nil
}

// GetOrFill returns the cached value for key, or runs fill and stores its
// result. Duplicate concurrent fills for the same key execute fill once and
// share the outcome; errors are returned to every waiter and never cached.
func (c *Cache) GetOrFill(ctx context.Context, key CacheKey, fill func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Re-check under singleflight: another caller may have filled the
		// key between our miss and this call.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Add(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Len reports the number of cached entries. Used by tests and the health
// endpoint.
func (c *Cache) Len() int {
	return c.store.Len()
}

// cached adapts GetOrFill to a concrete type.
func cached[T any](ctx context.Context, c *Cache, key CacheKey, fill func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.GetOrFill(ctx, key, func(ctx context.Context) (any, error) {
		return fill(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
