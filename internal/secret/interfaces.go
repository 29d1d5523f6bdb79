// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

//go:generate mockgen -source=interfaces.go -destination=../mock/key_store_mock.go -package=mock

import (
	"context"
	"time"
)

// KeyStore keeps secret keys outside the application cache, under a TTL the
// store itself enforces.
type KeyStore interface {
	// Store upserts key under key.ID with the given TTL.
	Store(ctx context.Context, key *SecretKey, ttl time.Duration) error

	// Retrieve reads the key back and slides its TTL to ttl. Returns
	// ErrKeyNotFound, ErrKeyExpired or ErrKeyRevoked when the key is gone.
	Retrieve(ctx context.Context, keyID string, ttl time.Duration) (*SecretKey, error)

	// Revoke invalidates the key. A key that is already gone is not an error.
	Revoke(ctx context.Context, keyID string) error
}
