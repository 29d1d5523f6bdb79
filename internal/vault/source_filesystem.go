// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/models"
)

// FilesystemSource reads vaults from local paths.
type FilesystemSource struct {
	dbLocation      string
	keyfileLocation string
}

func NewFilesystemSource(cfg config.Filesystem) *FilesystemSource {
	return &FilesystemSource{dbLocation: cfg.DBLocation, keyfileLocation: cfg.KeyfileLocation}
}

func (s *FilesystemSource) Authenticated() bool { return true }

func (s *FilesystemSource) ReadVault(_ context.Context, identity models.Identity) (io.ReadCloser, error) {
	path := pick(identity.VaultLocation, s.dbLocation)
	if path == "" {
		return nil, ErrNoLocation
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening vault file: %w", err)
	}
	return f, nil
}

func (s *FilesystemSource) ReadKeyfile(_ context.Context, identity models.Identity) (io.ReadCloser, error) {
	path := pick(identity.KeyfileLocation, s.keyfileLocation)
	if path == "" {
		return nil, ErrNoKeyfile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening keyfile: %w", err)
	}
	return f, nil
}

// WriteVault writes next to the vault and renames over it on Close, so a
// failed write never leaves a truncated vault behind.
func (s *FilesystemSource) WriteVault(_ context.Context, identity models.Identity) (io.WriteCloser, error) {
	path := pick(identity.VaultLocation, s.dbLocation)
	if path == "" {
		return nil, ErrNoLocation
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary vault file: %w", err)
	}
	return &renameOnClose{File: tmp, target: path}, nil
}

type renameOnClose struct {
	*os.File
	target string
}

func (w *renameOnClose) Close() error {
	if err := w.File.Sync(); err != nil {
		_ = w.File.Close()
		_ = os.Remove(w.File.Name())
		return fmt.Errorf("error syncing vault file: %w", err)
	}
	if err := w.File.Close(); err != nil {
		_ = os.Remove(w.File.Name())
		return fmt.Errorf("error closing vault file: %w", err)
	}
	if err := os.Rename(w.File.Name(), w.target); err != nil {
		_ = os.Remove(w.File.Name())
		return fmt.Errorf("error replacing vault file: %w", err)
	}
	return nil
}
