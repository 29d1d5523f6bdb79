// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cache keeps one sealed vault blob per authenticated identity.
//
// The cache never sees key material; it only stores crypto.Blob values.
// Expiry is logical: an entry past its expiry is reported as ErrExpired even
// while it is still physically present, until Purge or Clear removes it.
package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/crypto"
)

// DefaultDebounce is the minimum expiry extension worth a write.
const DefaultDebounce = time.Second

var (
	ErrNotFound      = errors.New("no cached vault for identity")
	ErrExpired       = errors.New("cached vault expired")
	ErrEmptyIdentity = errors.New("empty identity id")
)

// Cache is safe for concurrent use. Reads share an RWMutex read lock; a
// sliding refresh takes the write lock only when the extension exceeds the
// debounce threshold.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]crypto.Blob

	debounce time.Duration
	now      func() time.Time
}

type Option func(*Cache)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Cache) {
		c.debounce = d
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]crypto.Blob),
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store upserts the blob for identityID.
func (c *Cache) Store(identityID string, blob crypto.Blob) error {
	if identityID == "" {
		return ErrEmptyIdentity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[identityID] = blob
	return nil
}

// Retrieve returns the blob for identityID.
//
// When the blob is still valid and extending its expiry to now+window would
// move it by more than the debounce threshold, the expiry is extended and
// stored back. The returned blob always carries the expiry as stored.
func (c *Cache) Retrieve(identityID string, window time.Duration) (crypto.Blob, error) {
	now := c.now()

	c.mu.RLock()
	blob, ok := c.entries[identityID]
	c.mu.RUnlock()

	switch {
	case !ok:
		return crypto.Blob{}, ErrNotFound
	case blob.Expired(now):
		return crypto.Blob{}, ErrExpired
	case !c.needsRefresh(blob, now, window):
		return blob, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another request may have refreshed, replaced or cleared it meanwhile
	blob, ok = c.entries[identityID]
	switch {
	case !ok:
		return crypto.Blob{}, ErrNotFound
	case blob.Expired(now):
		return crypto.Blob{}, ErrExpired
	case c.needsRefresh(blob, now, window):
		blob.Expiry = now.Add(window)
		c.entries[identityID] = blob
	}

	return blob, nil
}

func (c *Cache) needsRefresh(blob crypto.Blob, now time.Time, window time.Duration) bool {
	return now.Add(window).Sub(blob.Expiry) > c.debounce
}

// Clear removes the blob for identityID. Clearing an absent entry is not an
// error.
func (c *Cache) Clear(identityID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, identityID)
	return nil
}

// Purge removes every entry past its expiry and reports how many were
// dropped.
func (c *Cache) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, blob := range c.entries {
		if blob.Expired(now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of physically present entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
