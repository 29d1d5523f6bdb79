// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/MKhiriev/go-vault-broker/models"
)

// TestSource serves a vault held in memory. Writes replace it. Selected by
// the "test" backend and used throughout the package tests.
type TestSource struct {
	mu      sync.RWMutex
	vault   []byte
	keyfile []byte
}

func NewTestSource(vault, keyfile []byte) *TestSource {
	return &TestSource{vault: vault, keyfile: keyfile}
}

func (s *TestSource) Authenticated() bool { return true }

func (s *TestSource) ReadVault(context.Context, models.Identity) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vault == nil {
		return nil, ErrNoLocation
	}
	return io.NopCloser(bytes.NewReader(s.vault)), nil
}

func (s *TestSource) ReadKeyfile(context.Context, models.Identity) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.keyfile == nil {
		return nil, ErrNoKeyfile
	}
	return io.NopCloser(bytes.NewReader(s.keyfile)), nil
}

func (s *TestSource) WriteVault(context.Context, models.Identity) (io.WriteCloser, error) {
	return &memoryUpload{src: s}, nil
}

// Vault returns a copy of the stored vault bytes.
func (s *TestSource) Vault() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.vault)
}

type memoryUpload struct {
	bytes.Buffer
	src *TestSource
}

func (w *memoryUpload) Close() error {
	w.src.mu.Lock()
	defer w.src.mu.Unlock()
	w.src.vault = bytes.Clone(w.Bytes())
	return nil
}
