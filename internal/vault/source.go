// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

//go:generate mockgen -source=source.go -destination=../mock/vault_source_mock.go -package=mock

import (
	"context"
	"fmt"
	"io"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

// Source names accepted by [NewSource].
const (
	SourceFilesystem = "filesystem"
	SourceHTTP       = "http"
	SourceTest       = "test"
)

// Source yields the raw vault file (and optionally a keyfile) for an
// identity. Locations carried by the identity take precedence over the
// configured ones.
type Source interface {
	// Authenticated reports whether the source is ready to serve.
	Authenticated() bool

	ReadVault(ctx context.Context, identity models.Identity) (io.ReadCloser, error)

	// ReadKeyfile returns ErrNoKeyfile when no keyfile is configured.
	ReadKeyfile(ctx context.Context, identity models.Identity) (io.ReadCloser, error)

	// WriteVault returns a writer that replaces the vault on Close.
	WriteVault(ctx context.Context, identity models.Identity) (io.WriteCloser, error)
}

// NewSource builds the source named by cfg.Backend.
func NewSource(cfg config.Vault) (Source, error) {
	switch cfg.Backend {
	case SourceFilesystem, "":
		return NewFilesystemSource(cfg.Filesystem), nil
	case SourceHTTP:
		return NewHTTPSource(cfg.HTTP, utils.NewHTTPClient(cfg.HTTP.Timeout)), nil
	case SourceTest:
		return NewTestSource(nil, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Backend)
	}
}

func pick(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}
