// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/cache"
	"github.com/MKhiriev/go-vault-broker/internal/crypto"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
)

// vaultService keeps an unlocked vault split in two: the sealed blob in the
// process cache, keyed by identity, and its key in the KeyStore, keyed by
// an id that only the user's session cookie carries. Neither half alone
// can decrypt the vault.
type vaultService struct {
	source vault.Source
	keys   secret.KeyStore
	blobs  *cache.Cache

	// timeout is the sliding inactivity window applied to both halves.
	timeout time.Duration

	now    func() time.Time
	logger *logger.Logger
}

func NewVaultService(source vault.Source, keys secret.KeyStore, blobs *cache.Cache, timeout time.Duration, logger *logger.Logger) VaultService {
	return &vaultService{
		source:  source,
		keys:    keys,
		blobs:   blobs,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Unlock reads and decodes the vault, seals it under a fresh key, stores the
// key, records its id in the session and caches the blob. A failure after
// the key was stored revokes it again.
//
// A keyfile passed in creds takes precedence over the source keyfile.
func (s *vaultService) Unlock(ctx context.Context, sess session.Session, identity models.Identity, creds vault.Credentials) error {
	log := logger.FromContext(ctx)
	defer creds.Wipe()

	if s.IsOpen(ctx, sess, identity) {
		return ErrVaultAlreadyOpen
	}

	keyfile, err := s.keyfile(ctx, identity, creds)
	if err != nil {
		log.Err(err).Msg("error reading keyfile")
		return err
	}
	defer keyfile.Wipe()

	db, err := s.decode(ctx, identity, creds.Password, keyfile)
	if err != nil {
		return err
	}

	key, blob, err := crypto.SealJSON(db, blobAAD(identity), s.now().Add(s.timeout))
	if err != nil {
		log.Err(err).Msg("error sealing database")
		return fmt.Errorf("error sealing database: %w", err)
	}
	defer key.Wipe()

	if err = s.keys.Store(ctx, key, s.timeout); err != nil {
		log.Err(err).Msg("error storing database key")
		return fmt.Errorf("error storing database key: %w", err)
	}

	if err = sess.Insert(session.KeyKeyID, key.ID); err != nil {
		log.Err(err).Msg("error recording key id in session")
		return errors.Join(fmt.Errorf("error recording key id in session: %w", err), s.revoke(ctx, key.ID))
	}

	if err = s.blobs.Store(identity.ID, blob); err != nil {
		log.Err(err).Msg("error caching database")
		return errors.Join(
			fmt.Errorf("error caching database: %w", err),
			s.revoke(ctx, key.ID),
			sess.Remove(session.KeyKeyID),
		)
	}

	log.Info().Msg("database unlocked")
	return nil
}

func (s *vaultService) keyfile(ctx context.Context, identity models.Identity, creds vault.Credentials) (*secret.Buffer, error) {
	if creds.Keyfile.Len() > 0 {
		return secret.CopyBuffer(creds.Keyfile.Bytes()), nil
	}

	rc, err := s.source.ReadKeyfile(ctx, identity)
	if errors.Is(err, vault.ErrNoKeyfile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading keyfile: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		secret.Zero(data)
		return nil, fmt.Errorf("error reading keyfile: %w", err)
	}
	return secret.NewBuffer(data), nil
}

func (s *vaultService) decode(ctx context.Context, identity models.Identity, password, keyfile *secret.Buffer) (*vault.Database, error) {
	log := logger.FromContext(ctx)

	rc, err := s.source.ReadVault(ctx, identity)
	if err != nil {
		log.Err(err).Msg("error reading database")
		return nil, fmt.Errorf("error reading database: %w", err)
	}
	defer rc.Close()

	db, err := vault.Decode(rc, password, keyfile.Bytes())
	if err != nil {
		log.Info().Err(err).Msg("database could not be opened")
		return nil, err
	}
	return db, nil
}

// Open fetches the key before the blob, so a session whose key is already
// gone never touches the cache.
func (s *vaultService) Open(ctx context.Context, sess session.Session, identity models.Identity) (*vault.Database, error) {
	log := logger.FromContext(ctx)

	keyID, ok, err := sess.Get(session.KeyKeyID)
	if err != nil {
		return nil, fmt.Errorf("error reading key id from session: %w", err)
	}
	if !ok || keyID == "" {
		return nil, ErrVaultClosed
	}

	key, err := s.keys.Retrieve(ctx, keyID, s.timeout)
	if secret.IsGone(err) {
		log.Info().Err(err).Msg("database key is gone, closing database")
		s.closeQuietly(ctx, sess, identity)
		return nil, fmt.Errorf("%w: %w", ErrVaultExpired, err)
	}
	if err != nil {
		log.Err(err).Msg("error retrieving database key")
		return nil, fmt.Errorf("error retrieving database key: %w", err)
	}
	defer key.Wipe()

	blob, err := s.blobs.Retrieve(identity.ID, s.timeout)
	switch {
	case errors.Is(err, cache.ErrExpired):
		log.Info().Msg("cached database expired, closing database")
		s.closeQuietly(ctx, sess, identity)
		return nil, fmt.Errorf("%w: %w", ErrVaultExpired, err)
	case errors.Is(err, cache.ErrNotFound):
		// the key outlived its blob (purge, restart); drop it too
		log.Info().Msg("cached database is gone, closing database")
		s.closeQuietly(ctx, sess, identity)
		return nil, fmt.Errorf("%w: %w", ErrVaultClosed, err)
	case err != nil:
		log.Err(err).Msg("error retrieving cached database")
		return nil, fmt.Errorf("error retrieving cached database: %w", err)
	}

	var db vault.Database
	if err = blob.OpenJSON(key, blobAAD(identity), &db); err != nil {
		log.Err(err).Msg("error decrypting cached database")
		return nil, fmt.Errorf("error decrypting cached database: %w", err)
	}

	return &db, nil
}

func (s *vaultService) IsOpen(ctx context.Context, sess session.Session, identity models.Identity) bool {
	_, err := s.Open(ctx, sess, identity)
	return err == nil
}

// Close clears the cache entry before revoking the key. Both steps always
// run; a key that is already gone counts as revoked.
func (s *vaultService) Close(ctx context.Context, sess session.Session, identity models.Identity) error {
	errs := []error{s.blobs.Clear(identity.ID)}

	keyID, ok, err := sess.Get(session.KeyKeyID)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("error reading key id from session: %w", err))
	case ok:
		if err = s.revoke(ctx, keyID); err == nil {
			err = sess.Remove(session.KeyKeyID)
		}
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *vaultService) SourceReady() bool {
	return s.source.Authenticated()
}

func (s *vaultService) revoke(ctx context.Context, keyID string) error {
	if err := s.keys.Revoke(ctx, keyID); err != nil && !secret.IsGone(err) {
		return fmt.Errorf("error revoking database key: %w", err)
	}
	return nil
}

func (s *vaultService) closeQuietly(ctx context.Context, sess session.Session, identity models.Identity) {
	if err := s.Close(ctx, sess, identity); err != nil {
		logger.FromContext(ctx).Err(err).Msg("error closing database")
	}
}

// blobAAD binds a sealed vault to the identity it was unlocked for.
func blobAAD(identity models.Identity) []byte {
	return []byte(identity.ID)
}
