// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package session is the per-request session storage handed explicitly to
// every component that needs it.
//
// The production implementation is an encrypted, authenticated cookie
// (gorilla/sessions). Values are plain strings; structured values such as
// the identity are stored as JSON.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-vault-broker/models"
)

// Well-known session keys.
const (
	KeyUser      = "user"
	KeyCSRF      = "csrf"
	KeyKeyID     = "key_id"
	KeyAuthState = "auth_state"
)

var (
	// ErrCorrupted means the session cookie could not be decoded: tampered,
	// signed with a rotated key or truncated.
	ErrCorrupted = errors.New("session corrupted")

	ErrNoSession = errors.New("no session in context")
)

// Session is request-scoped storage. Every method may fail; a failure is an
// infrastructure error and must not be confused with an absent key.
type Session interface {
	Get(key string) (string, bool, error)
	Insert(key, value string) error
	Remove(key string) error
	Destroy() error
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// Identity returns the identity stored at login, if any.
func Identity(s Session) (models.Identity, bool, error) {
	raw, ok, err := s.Get(KeyUser)
	if err != nil || !ok {
		return models.Identity{}, false, err
	}

	var identity models.Identity
	if err = json.Unmarshal([]byte(raw), &identity); err != nil {
		return models.Identity{}, false, fmt.Errorf("%w: decoding identity: %w", ErrCorrupted, err)
	}
	if identity.IsZero() {
		return models.Identity{}, false, nil
	}

	return identity, true, nil
}

func SetIdentity(s Session, identity models.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	return s.Insert(KeyUser, string(raw))
}
