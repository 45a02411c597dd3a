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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheFillsOnce(t *testing.T) {
	cache, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	var calls int32
	key := CacheKey{Kind: "upstream-rows", Version: "4.10"}
	fill := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.GetOrFill(context.Background(), key, fill)
		if err != nil {
			t.Fatalf("GetOrFill: %v", err)
		}
		if v != "value" {
			t.Errorf("GetOrFill = %v, want %q", v, "value")
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fill called %d times, want 1", got)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	cache, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	var calls int32
	key := CacheKey{Kind: "component-rows", Version: "4.11"}
	boom := errors.New("doozer exploded")

	fill := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	if _, err := cache.GetOrFill(context.Background(), key, fill); !errors.Is(err, boom) {
		t.Fatalf("first GetOrFill error = %v, want %v", err, boom)
	}
	v, err := cache.GetOrFill(context.Background(), key, fill)
	if err != nil {
		t.Fatalf("second GetOrFill: %v", err)
	}
	if v != "ok" {
		t.Errorf("second GetOrFill = %v, want %q", v, "ok")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fill called %d times, want 2", got)
	}
}

func TestCacheConcurrentMissesCollapse(t *testing.T) {
	cache, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	var calls int32
	gate := make(chan struct{})
	key := CacheKey{Kind: "image-recipe", Entity: "ironic", Version: "4.10"}

	fill := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return 42, nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrFill(context.Background(), key, fill)
			if err != nil {
				t.Errorf("GetOrFill: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	close(gate)
	wg.Wait()

	// Some goroutines may arrive after the first fill completes, but the
	// in-flight window must be shared: far fewer fills than workers, and in
	// practice exactly one.
	if got := atomic.LoadInt32(&calls); got > 2 {
		t.Errorf("fill called %d times, want at most 2", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("worker %d got %v, want 42", i, v)
		}
	}
}

func TestCacheKeysAreVersionScoped(t *testing.T) {
	cache, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	fillFor := func(result string) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) { return result, nil }
	}

	v410, err := cache.GetOrFill(context.Background(), CacheKey{Kind: "k", Version: "4.10"}, fillFor("a"))
	if err != nil {
		t.Fatalf("GetOrFill 4.10: %v", err)
	}
	v411, err := cache.GetOrFill(context.Background(), CacheKey{Kind: "k", Version: "4.11"}, fillFor("b"))
	if err != nil {
		t.Fatalf("GetOrFill 4.11: %v", err)
	}

	if v410 == v411 {
		t.Error("values for different versions shared a cache slot")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}
