// Package models memoizes loaded model handles and manages on-disk model
// caches.
package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnavailable reports that a model could not be loaded for a key.
var ErrUnavailable = errors.New("model unavailable")

// Key identifies a model handle: an engine, a language pair, and a device.
// Transcription handles leave Target empty.
type Key struct {
	Engine string
	Source string
	Target string
	Device string
}

func (k Key) String() string {
	parts := []string{k.Engine}
	if k.Source != "" || k.Target != "" {
		parts = append(parts, k.Source+"->"+k.Target)
	}
	if k.Device != "" {
		parts = append(parts, k.Device)
	}
	return strings.Join(parts, "/")
}

// Loader prepares a ready handle for key or returns an error wrapping
// ErrUnavailable.
type Loader[H any] func(ctx context.Context, key Key) (H, error)

// Cache loads each key at most once at a time and keeps successful handles
// for the life of the cache. Failed loads are not remembered.
type Cache[H any] struct {
	load Loader[H]

	mu      sync.Mutex
	entries map[Key]*entry[H]
}

type entry[H any] struct {
	done   chan struct{}
	handle H
	err    error
}

// NewCache returns an empty cache backed by load.
func NewCache[H any](load Loader[H]) *Cache[H] {
	return &Cache[H]{load: load, entries: make(map[Key]*entry[H])}
}

// Get returns the handle for key, loading it on first use. Concurrent
// callers for the same key share one load.
func (c *Cache[H]) Get(ctx context.Context, key Key) (H, error) {
	var zero H
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.handle, e.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	e := &entry[H]{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	handle, err := c.load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrUnavailable, key, err)
		}
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		e.err = err
	} else {
		e.handle = handle
	}
	close(e.done)
	return e.handle, e.err
}

// Len reports how many keys are loaded or loading.
func (c *Cache[H]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
