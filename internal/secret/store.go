// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/logger"
)

const (
	KindKeyring = "keyring"
	KindMemory  = "memory"
	KindAuto    = "auto"
)

// NewKeyStore builds the configured KeyStore.
//
// KindAuto tries the kernel keyring first and verifies it with a short-lived
// test key. Container runtimes commonly filter keyctl(2) via seccomp, so a
// keyring that resolves fine can still refuse add_key; in that case the
// memory store is used and a warning is logged.
func NewKeyStore(ctx context.Context, kind, keyring string, log *logger.Logger) (KeyStore, error) {
	switch kind {
	case KindMemory:
		log.Info().Msg("using in-memory key store")
		return NewMemoryStore(), nil
	case KindKeyring:
		ks, err := NewKeyringStore(keyring)
		if err != nil {
			return nil, err
		}
		if err = checkStore(ctx, ks); err != nil {
			return nil, fmt.Errorf("kernel keyring is not usable: %w", err)
		}
		log.Info().Str("keyring", keyring).Msg("using kernel keyring key store")
		return ks, nil
	case KindAuto, "":
		ks, err := NewKeyringStore(keyring)
		if err == nil {
			err = checkStore(ctx, ks)
		}
		if err != nil {
			log.Warn().Err(err).Msg("kernel keyring unavailable, falling back to in-memory key store")
			return NewMemoryStore(), nil
		}
		log.Info().Str("keyring", keyring).Msg("using kernel keyring key store")
		return ks, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyStoreKind, kind)
	}
}

func checkStore(ctx context.Context, ks KeyStore) error {
	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return err
	}
	key := NewSecretKey(material)
	defer key.Wipe()

	if err := ks.Store(ctx, key, time.Second); err != nil {
		return err
	}
	return ks.Revoke(ctx, key.ID)
}
