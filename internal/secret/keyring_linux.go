// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

//go:build linux

package secret

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

const (
	keyType = "user"

	// possessor: view, read, write, search, link, setattr. Nothing for
	// user, group or other.
	possessorAllPerm = 0x3f000000
)

var _ KeyStore = (*KeyringStore)(nil)

// KeyringStore keeps keys in a Linux kernel keyring. The kernel enforces
// the TTL; an expired key disappears even if this process never touches it
// again.
type KeyringStore struct {
	ringID int
	name   string

	setPerm func(id int, perm uint32) error
}

// NewKeyringStore resolves (and creates if needed) the named keyring:
// "session", "process" or "user". An empty name selects the session keyring.
func NewKeyringStore(keyring string) (*KeyringStore, error) {
	spec, name, err := keyringSpec(keyring)
	if err != nil {
		return nil, err
	}

	ringID, err := unix.KeyctlGetKeyringID(spec, true)
	if err != nil {
		return nil, fmt.Errorf("accessing %s keyring: %w", name, err)
	}

	return &KeyringStore{ringID: ringID, name: name, setPerm: unix.KeyctlSetperm}, nil
}

func keyringSpec(keyring string) (int, string, error) {
	switch keyring {
	case "", "session":
		return unix.KEY_SPEC_SESSION_KEYRING, "session", nil
	case "process":
		return unix.KEY_SPEC_PROCESS_KEYRING, "process", nil
	case "user":
		return unix.KEY_SPEC_USER_KEYRING, "user", nil
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownKeyring, keyring)
	}
}

func (s *KeyringStore) Store(ctx context.Context, key *SecretKey, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !key.valid() {
		return ErrInvalidKey
	}

	// add_key on an existing description replaces the payload in place
	id, err := unix.AddKey(keyType, key.ID, key.Material(), s.ringID)
	if err != nil {
		return fmt.Errorf("adding key to %s keyring: %w", s.name, mapKeyctlError(err))
	}

	// a key without its timeout or permissions must not stay behind
	if err = setTimeout(id, ttl); err != nil {
		return errors.Join(fmt.Errorf("setting key timeout: %w", err), revokeID(id))
	}

	if err = s.setPerm(id, possessorAllPerm); err != nil {
		return errors.Join(fmt.Errorf("setting key permissions: %w", mapKeyctlError(err)), revokeID(id))
	}

	return nil
}

func (s *KeyringStore) Retrieve(ctx context.Context, keyID string, ttl time.Duration) (*SecretKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := s.search(keyID)
	if err != nil {
		return nil, err
	}

	size, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("reading key size: %w", mapKeyctlError(err))
	}

	buf := make([]byte, size)
	n, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, buf, 0)
	if err != nil {
		Zero(buf)
		return nil, fmt.Errorf("reading key: %w", mapKeyctlError(err))
	}
	if n < len(buf) {
		buf = buf[:n]
	}

	if err = setTimeout(id, ttl); err != nil {
		Zero(buf)
		return nil, fmt.Errorf("refreshing key timeout: %w", err)
	}

	return newSecretKeyWithID(keyID, buf), nil
}

func (s *KeyringStore) Revoke(ctx context.Context, keyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := s.search(keyID)
	if err != nil {
		if IsGone(err) {
			return nil
		}
		return err
	}

	return revokeID(id)
}

func revokeID(id int) error {
	if _, err := unix.KeyctlInt(unix.KEYCTL_REVOKE, id, 0, 0, 0); err != nil {
		if err = mapKeyctlError(err); IsGone(err) {
			return nil
		}
		return fmt.Errorf("revoking key: %w", err)
	}
	return nil
}

func (s *KeyringStore) search(keyID string) (int, error) {
	if keyID == "" {
		return 0, ErrInvalidKey
	}

	id, err := unix.KeyctlSearch(s.ringID, keyType, keyID, 0)
	if err != nil {
		return 0, fmt.Errorf("searching %s keyring: %w", s.name, mapKeyctlError(err))
	}

	return id, nil
}

func setTimeout(id int, ttl time.Duration) error {
	secs := max(int(math.Ceil(ttl.Seconds())), 1)
	if _, err := unix.KeyctlInt(unix.KEYCTL_SET_TIMEOUT, id, secs, 0, 0); err != nil {
		return mapKeyctlError(err)
	}
	return nil
}

func mapKeyctlError(err error) error {
	switch {
	case errors.Is(err, unix.ENOKEY):
		return fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	case errors.Is(err, unix.EKEYEXPIRED):
		return fmt.Errorf("%w: %w", ErrKeyExpired, err)
	case errors.Is(err, unix.EKEYREVOKED):
		return fmt.Errorf("%w: %w", ErrKeyRevoked, err)
	default:
		return err
	}
}
