// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

//go:generate mockgen -source=interfaces.go -destination=../mock/auth_backend_mock.go -package=mock

import (
	"context"
	"net/url"

	"github.com/MKhiriev/go-vault-broker/models"
)

// Backend authenticates users against one identity source.
type Backend interface {
	// ValidateConfig checks backend-specific settings at startup.
	ValidateConfig() error

	// Init runs once before serving, e.g. provider discovery.
	Init(ctx context.Context) (Cache, error)

	// LoginType tells the client which login step to show. host is the
	// externally visible base URL, used to build redirect URIs.
	LoginType(host string, cache Cache) (models.LoginType, error)

	// Login checks a username and password. Backends without a credential
	// form return ErrIncorrectCredentials.
	Login(ctx context.Context, username, password string) (models.Identity, error)

	// Callback completes a redirect-based login. state is the value the
	// caller stored from LoginType; params are the callback query values.
	Callback(ctx context.Context, state string, cache Cache, params url.Values, host string) (models.Identity, error)

	// LogoutType tells the client where to go after logout.
	LogoutType(identity models.Identity, host string, cache Cache) (models.LogoutType, error)

	// SessionKeys lists the session keys this backend's flow uses. The caller
	// removes them once a callback has been handled.
	SessionKeys() []string
}
