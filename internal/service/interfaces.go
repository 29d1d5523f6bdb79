// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

import (
	"context"
	"net/url"

	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
)

// VaultService unlocks a vault into the ephemeral cache and hands it back to
// later requests of the same session.
type VaultService interface {
	// Unlock decodes the identity's vault with creds and caches it sealed.
	// creds are wiped before returning.
	Unlock(ctx context.Context, sess session.Session, identity models.Identity, creds vault.Credentials) error

	// Open returns the decrypted vault. ErrVaultClosed and ErrVaultExpired
	// mean the user has to unlock again.
	Open(ctx context.Context, sess session.Session, identity models.Identity) (*vault.Database, error)

	// IsOpen folds every Open failure into false.
	IsOpen(ctx context.Context, sess session.Session, identity models.Identity) bool

	// Close drops the cached vault and revokes its key. Idempotent.
	Close(ctx context.Context, sess session.Session, identity models.Identity) error

	// SourceReady reports whether the vault source can serve.
	SourceReady() bool
}

// AuthService drives the login and logout flows of the configured backend.
type AuthService interface {
	LoginType(ctx context.Context, sess session.Session, host string) (models.LoginType, error)
	Login(ctx context.Context, sess session.Session, username, password string) (models.LoginResult, error)
	Callback(ctx context.Context, sess session.Session, params url.Values, host string) (models.LoginResult, error)
	Logout(ctx context.Context, sess session.Session, identity models.Identity, host string) (models.LogoutType, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}
