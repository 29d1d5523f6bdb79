// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobischo/gokeepasslib/v3"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-vault-broker/internal/cache"
	"github.com/MKhiriev/go-vault-broker/internal/crypto"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/mock"
	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
)

type vaultFixture struct {
	svc    *vaultService
	source *vault.TestSource
	keys   *secret.MemoryStore
	blobs  *cache.Cache
	clock  *fakeClock
}

func newVaultFixture(t *testing.T, raw, keyfile []byte) vaultFixture {
	t.Helper()

	clock := newFakeClock()
	source := vault.NewTestSource(raw, keyfile)
	keys := secret.NewMemoryStore()
	blobs := cache.New(cache.WithClock(clock.Now))

	svc := NewVaultService(source, keys, blobs, testTimeout, logger.Nop()).(*vaultService)
	svc.now = clock.Now

	return vaultFixture{svc: svc, source: source, keys: keys, blobs: blobs, clock: clock}
}

var alice = models.NewIdentity("alice", "Alice")

// ── Unlock / Open / Close ────────────────────────────────────────────────────

func TestVaultService_UnlockOpenClose(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	ctx := context.Background()
	sess := session.NewMemory(nil)

	creds := passwordOnly("hunter2")
	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, creds))

	assert.Zero(t, creds.Password.Len(), "password not wiped")
	keyID, ok, _ := sess.Get(session.KeyKeyID)
	require.True(t, ok)
	assert.Len(t, keyID, secret.KeyIDLength)
	assert.Equal(t, 1, fx.blobs.Len())

	db, err := fx.svc.Open(ctx, sess, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", db.Root.Name)
	pw, err := db.Protected(db.Root.Entries[0].ID, "password")
	require.NoError(t, err)
	assert.Equal(t, "correct horse", string(pw.Bytes()))
	assert.True(t, fx.svc.IsOpen(ctx, sess, alice))

	require.NoError(t, fx.svc.Close(ctx, sess, alice))

	assert.False(t, fx.svc.IsOpen(ctx, sess, alice))
	_, err = fx.svc.Open(ctx, sess, alice)
	assert.ErrorIs(t, err, ErrVaultClosed)
	assert.NotContains(t, sess.Values(), session.KeyKeyID)
	_, err = fx.keys.Retrieve(ctx, keyID, testTimeout)
	assert.ErrorIs(t, err, secret.ErrKeyRevoked)
	_, err = fx.blobs.Retrieve(alice.ID, testTimeout)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// teardown is idempotent
	require.NoError(t, fx.svc.Close(ctx, sess, alice))
	require.NoError(t, fx.svc.Close(ctx, session.NewMemory(nil), alice))
}

func TestVaultService_Unlock_AlreadyOpen(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	ctx := context.Background()
	sess := session.NewMemory(nil)

	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2")))
	keyID, _, _ := sess.Get(session.KeyKeyID)

	err := fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2"))
	assert.ErrorIs(t, err, ErrVaultAlreadyOpen)

	again, _, _ := sess.Get(session.KeyKeyID)
	assert.Equal(t, keyID, again, "key replaced on rejected unlock")
}

func TestVaultService_Unlock_WrongPassword(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	sess := session.NewMemory(nil)

	err := fx.svc.Unlock(context.Background(), sess, alice, passwordOnly("hunter3"))

	assert.ErrorIs(t, err, vault.ErrDecode)
	assert.Empty(t, sess.Values())
	assert.Zero(t, fx.blobs.Len())
}

func TestVaultService_Unlock_Keyfile(t *testing.T) {
	keyfile := []byte("0123456789abcdef0123456789abcdef")
	creds, err := gokeepasslib.NewPasswordAndKeyDataCredentials("hunter2", keyfile)
	require.NoError(t, err)
	raw := buildVault(t, creds)
	ctx := context.Background()

	t.Run("from source", func(t *testing.T) {
		fx := newVaultFixture(t, raw, keyfile)
		require.NoError(t, fx.svc.Unlock(ctx, session.NewMemory(nil), alice, passwordOnly("hunter2")))
	})

	t.Run("from request takes precedence", func(t *testing.T) {
		fx := newVaultFixture(t, raw, []byte("some other keyfile"))
		given := vault.Credentials{
			Password: secret.CopyBuffer([]byte("hunter2")),
			Keyfile:  secret.CopyBuffer(keyfile),
		}
		require.NoError(t, fx.svc.Unlock(ctx, session.NewMemory(nil), alice, given))
		assert.Zero(t, given.Keyfile.Len(), "keyfile not wiped")
	})

	t.Run("missing", func(t *testing.T) {
		fx := newVaultFixture(t, raw, nil)
		err := fx.svc.Unlock(ctx, session.NewMemory(nil), alice, passwordOnly("hunter2"))
		assert.ErrorIs(t, err, vault.ErrDecode)
	})
}

func TestVaultService_Unlock_SourceError(t *testing.T) {
	fx := newVaultFixture(t, nil, nil)

	err := fx.svc.Unlock(context.Background(), session.NewMemory(nil), alice, passwordOnly("hunter2"))

	assert.ErrorIs(t, err, vault.ErrNoLocation)
}

func TestVaultService_Unlock_KeyStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mock.NewMockKeyStore(ctrl)
	blobs := cache.New()
	raw := buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2"))
	svc := NewVaultService(vault.NewTestSource(raw, nil), keys, blobs, testTimeout, logger.Nop())
	sess := session.NewMemory(nil)

	keys.EXPECT().Store(gomock.Any(), gomock.Any(), testTimeout).Return(errors.New("keyring quota exceeded"))

	err := svc.Unlock(context.Background(), sess, alice, passwordOnly("hunter2"))

	assert.ErrorContains(t, err, "keyring quota exceeded")
	assert.Empty(t, sess.Values())
	assert.Zero(t, blobs.Len())
}

func TestVaultService_Unlock_CacheErrorRevokesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mock.NewMockKeyStore(ctrl)
	raw := buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2"))
	svc := NewVaultService(vault.NewTestSource(raw, nil), keys, cache.New(), testTimeout, logger.Nop())
	sess := session.NewMemory(nil)
	nobody := models.Identity{}

	var storedID string
	gomock.InOrder(
		keys.EXPECT().Store(gomock.Any(), gomock.Any(), testTimeout).DoAndReturn(
			func(_ context.Context, key *secret.SecretKey, _ time.Duration) error {
				storedID = key.ID
				return nil
			},
		),
		keys.EXPECT().Revoke(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, keyID string) error {
				assert.Equal(t, storedID, keyID)
				return nil
			},
		),
	)

	err := svc.Unlock(context.Background(), sess, nobody, passwordOnly("hunter2"))

	assert.ErrorIs(t, err, cache.ErrEmptyIdentity)
	assert.NotContains(t, sess.Values(), session.KeyKeyID)
}

func TestVaultService_Unlock_SessionErrorRevokesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mock.NewMockKeyStore(ctrl)
	raw := buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2"))
	blobs := cache.New()
	svc := NewVaultService(vault.NewTestSource(raw, nil), keys, blobs, testTimeout, logger.Nop())

	sess := &failingInsert{Memory: session.NewMemory(nil)}

	keys.EXPECT().Store(gomock.Any(), gomock.Any(), testTimeout).Return(nil)
	keys.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(secret.ErrKeyNotFound)

	err := svc.Unlock(context.Background(), sess, alice, passwordOnly("hunter2"))

	assert.ErrorIs(t, err, errCookieTooLarge)
	assert.Zero(t, blobs.Len())
}

var errCookieTooLarge = errors.New("cookie too large")

type failingInsert struct {
	*session.Memory
}

func (f *failingInsert) Insert(string, string) error { return errCookieTooLarge }

// ── Open failures ────────────────────────────────────────────────────────────

func TestVaultService_Open_BlobExpired(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	ctx := context.Background()
	sess := session.NewMemory(nil)
	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2")))
	keyID, _, _ := sess.Get(session.KeyKeyID)

	fx.clock.Advance(testTimeout)

	_, err := fx.svc.Open(ctx, sess, alice)

	assert.ErrorIs(t, err, ErrVaultExpired)
	assert.ErrorIs(t, err, cache.ErrExpired)
	assert.NotContains(t, sess.Values(), session.KeyKeyID)
	assert.Zero(t, fx.blobs.Len())
	_, err = fx.keys.Retrieve(ctx, keyID, testTimeout)
	assert.ErrorIs(t, err, secret.ErrKeyRevoked)
}

func TestVaultService_Open_BlobGoneRevokesKey(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	ctx := context.Background()
	sess := session.NewMemory(nil)
	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2")))
	oldKeyID, _, _ := sess.Get(session.KeyKeyID)

	// blob dropped behind the session's back, e.g. by a restart
	require.NoError(t, fx.blobs.Clear(alice.ID))

	_, err := fx.svc.Open(ctx, sess, alice)
	assert.ErrorIs(t, err, ErrVaultClosed)
	assert.NotContains(t, sess.Values(), session.KeyKeyID)
	_, err = fx.keys.Retrieve(ctx, oldKeyID, testTimeout)
	assert.ErrorIs(t, err, secret.ErrKeyRevoked)

	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2")))
	newKeyID, _, _ := sess.Get(session.KeyKeyID)
	assert.NotEqual(t, oldKeyID, newKeyID)
	_, err = fx.keys.Retrieve(ctx, oldKeyID, testTimeout)
	assert.ErrorIs(t, err, secret.ErrKeyRevoked)
}

func TestVaultService_Open_SlidesExpiry(t *testing.T) {
	fx := newVaultFixture(t, buildVault(t, gokeepasslib.NewPasswordCredentials("hunter2")), nil)
	ctx := context.Background()
	sess := session.NewMemory(nil)
	require.NoError(t, fx.svc.Unlock(ctx, sess, alice, passwordOnly("hunter2")))

	for range 3 {
		fx.clock.Advance(testTimeout / 2)
		_, err := fx.svc.Open(ctx, sess, alice)
		require.NoError(t, err)
	}
}

func TestVaultService_Open_KeyGone(t *testing.T) {
	for _, keyErr := range []error{secret.ErrKeyNotFound, secret.ErrKeyExpired, secret.ErrKeyRevoked} {
		t.Run(keyErr.Error(), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			keys := mock.NewMockKeyStore(ctrl)
			blobs := cache.New()
			svc := NewVaultService(vault.NewTestSource(nil, nil), keys, blobs, testTimeout, logger.Nop())
			sess := session.NewMemory(map[string]string{session.KeyKeyID: "K1"})
			require.NoError(t, blobs.Store(alice.ID, sealedBlob(t)))

			gomock.InOrder(
				keys.EXPECT().Retrieve(gomock.Any(), "K1", testTimeout).Return(nil, keyErr),
				keys.EXPECT().Revoke(gomock.Any(), "K1").Return(keyErr),
			)

			_, err := svc.Open(context.Background(), sess, alice)

			assert.ErrorIs(t, err, ErrVaultExpired)
			assert.Zero(t, blobs.Len(), "cache not cleared")
			assert.NotContains(t, sess.Values(), session.KeyKeyID)
		})
	}
}

func TestVaultService_Open_Errors(t *testing.T) {
	storeDown := errors.New("keyring unavailable")
	sessionDown := errors.New("session backend down")

	tests := []struct {
		name    string
		sess    func() *session.Memory
		setup   func(keys *mock.MockKeyStore, blobs *cache.Cache)
		wantErr error
		notErr  []error
	}{
		{
			name:    "no key id",
			sess:    func() *session.Memory { return session.NewMemory(nil) },
			setup:   func(*mock.MockKeyStore, *cache.Cache) {},
			wantErr: ErrVaultClosed,
		},
		{
			name: "session failure is not closed",
			sess: func() *session.Memory {
				m := session.NewMemory(nil)
				m.Err = sessionDown
				return m
			},
			setup:   func(*mock.MockKeyStore, *cache.Cache) {},
			wantErr: sessionDown,
			notErr:  []error{ErrVaultClosed, ErrVaultExpired},
		},
		{
			name: "key store failure is infrastructure",
			sess: func() *session.Memory { return session.NewMemory(map[string]string{session.KeyKeyID: "K1"}) },
			setup: func(keys *mock.MockKeyStore, _ *cache.Cache) {
				keys.EXPECT().Retrieve(gomock.Any(), "K1", testTimeout).Return(nil, storeDown)
			},
			wantErr: storeDown,
			notErr:  []error{ErrVaultClosed, ErrVaultExpired},
		},
		{
			name: "blob missing revokes key",
			sess: func() *session.Memory { return session.NewMemory(map[string]string{session.KeyKeyID: "K1"}) },
			setup: func(keys *mock.MockKeyStore, _ *cache.Cache) {
				gomock.InOrder(
					keys.EXPECT().Retrieve(gomock.Any(), "K1", testTimeout).Return(secret.NewSecretKey(make([]byte, 32)), nil),
					keys.EXPECT().Revoke(gomock.Any(), "K1").Return(nil),
				)
			},
			wantErr: ErrVaultClosed,
		},
		{
			name: "wrong key is infrastructure",
			sess: func() *session.Memory { return session.NewMemory(map[string]string{session.KeyKeyID: "K1"}) },
			setup: func(keys *mock.MockKeyStore, blobs *cache.Cache) {
				require.NoError(t, blobs.Store(alice.ID, sealedBlob(t)))
				keys.EXPECT().Retrieve(gomock.Any(), "K1", testTimeout).Return(secret.NewSecretKey(make([]byte, 32)), nil)
			},
			wantErr: crypto.ErrDecrypt,
			notErr:  []error{ErrVaultClosed, ErrVaultExpired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			keys := mock.NewMockKeyStore(ctrl)
			blobs := cache.New()
			tt.setup(keys, blobs)
			svc := NewVaultService(vault.NewTestSource(nil, nil), keys, blobs, testTimeout, logger.Nop())

			_, err := svc.Open(context.Background(), tt.sess(), alice)

			assert.ErrorIs(t, err, tt.wantErr)
			for _, notErr := range tt.notErr {
				assert.NotErrorIs(t, err, notErr)
			}
		})
	}
}

// ── Close failures ───────────────────────────────────────────────────────────

func TestVaultService_Close_AlwaysClearsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mock.NewMockKeyStore(ctrl)
	blobs := cache.New()
	svc := NewVaultService(vault.NewTestSource(nil, nil), keys, blobs, testTimeout, logger.Nop())
	require.NoError(t, blobs.Store(alice.ID, sealedBlob(t)))

	revokeErr := errors.New("permission denied")
	keys.EXPECT().Revoke(gomock.Any(), "K1").Return(revokeErr)
	sess := session.NewMemory(map[string]string{session.KeyKeyID: "K1"})

	err := svc.Close(context.Background(), sess, alice)

	assert.ErrorIs(t, err, revokeErr)
	assert.Zero(t, blobs.Len())
	assert.Contains(t, sess.Values(), session.KeyKeyID, "key id dropped although the key was not revoked")
}

func TestVaultService_Close_SessionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mock.NewMockKeyStore(ctrl)
	blobs := cache.New()
	svc := NewVaultService(vault.NewTestSource(nil, nil), keys, blobs, testTimeout, logger.Nop())
	require.NoError(t, blobs.Store(alice.ID, sealedBlob(t)))

	sess := session.NewMemory(nil)
	sess.Err = errors.New("session backend down")

	err := svc.Close(context.Background(), sess, alice)

	assert.ErrorIs(t, err, sess.Err)
	assert.Zero(t, blobs.Len())
}

func TestVaultService_SourceReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock.NewMockSource(ctrl)
	source.EXPECT().Authenticated().Return(false)

	svc := NewVaultService(source, secret.NewMemoryStore(), cache.New(), testTimeout, logger.Nop())

	assert.False(t, svc.SourceReady())
}

func sealedBlob(t *testing.T) crypto.Blob {
	t.Helper()
	key, blob, err := crypto.SealJSON(vault.Database{}, []byte(alice.ID), newFakeClock().Now().Add(100*365*24*time.Hour))
	require.NoError(t, err)
	key.Wipe()
	return blob
}
