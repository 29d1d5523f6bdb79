// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tg123/go-htpasswd"
	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/models"
)

// dummyHash is compared against when the user does not exist, so a miss
// costs about as much as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not a real password"), bcrypt.DefaultCost)
	return h
})

// Htpasswd checks credentials against an Apache-style htpasswd file. The
// file is re-read line by line on every login, so edits apply immediately.
type Htpasswd struct {
	base
	path string
}

func NewHtpasswd(cfg config.Htpasswd) *Htpasswd {
	return &Htpasswd{path: cfg.Path}
}

func (h *Htpasswd) ValidateConfig() error {
	if h.path == "" {
		return fmt.Errorf("%w: htpasswd path is empty", ErrInvalidConfig)
	}
	info, err := os.Stat(h.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidConfig, h.path)
	}
	return nil
}

func (h *Htpasswd) Login(ctx context.Context, username, password string) (models.Identity, error) {
	if username == "" || password == "" {
		return models.Identity{}, ErrIncorrectCredentials
	}

	f, err := os.Open(h.path)
	if err != nil {
		return models.Identity{}, fmt.Errorf("error opening htpasswd file: %w", err)
	}
	defer f.Close()

	seen := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err = ctx.Err(); err != nil {
			return models.Identity{}, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, hash, ok := strings.Cut(line, ":")
		if !ok || user != username {
			continue
		}

		seen = true
		if verifyHash(hash, password) {
			return models.NewIdentity(username, username), nil
		}
	}
	if err = scanner.Err(); err != nil {
		return models.Identity{}, fmt.Errorf("error reading htpasswd file: %w", err)
	}

	if !seen {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
	}

	return models.Identity{}, ErrIncorrectCredentials
}

// verifyHash accepts the formats Apache htpasswd writes: apr1 MD5, {SHA},
// {SSHA}, bcrypt and SHA-256/512 crypt. Plain text is never accepted.
func verifyHash(hash, password string) bool {
	for _, parse := range htpasswd.DefaultSystems {
		encoded, err := parse(hash)
		if err != nil {
			return false
		}
		if encoded != nil {
			return encoded.MatchesPassword(password)
		}
	}
	return false
}
