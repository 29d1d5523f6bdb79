// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tobischo/gokeepasslib/v3"
	w "github.com/tobischo/gokeepasslib/v3/wrappers"

	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
)

const testTimeout = 10 * time.Minute

// buildVault encodes a one-entry KDBX file protected by creds.
func buildVault(t *testing.T, creds *gokeepasslib.DBCredentials) []byte {
	t.Helper()

	entry := gokeepasslib.NewEntry()
	entry.Values = []gokeepasslib.ValueData{
		{Key: vault.KeyTitle, Value: gokeepasslib.V{Content: "Mail"}},
		{Key: vault.KeyUserName, Value: gokeepasslib.V{Content: "alice@example.com"}},
		{Key: vault.KeyPassword, Value: gokeepasslib.V{Content: "correct horse", Protected: w.NewBoolWrapper(true)}},
	}

	root := gokeepasslib.NewGroup()
	root.Name = "alice"
	root.Entries = []gokeepasslib.Entry{entry}

	db := gokeepasslib.NewDatabase()
	db.Credentials = creds
	db.Content.Root = &gokeepasslib.RootData{Groups: []gokeepasslib.Group{root}}
	require.NoError(t, db.LockProtectedEntries())

	var buf bytes.Buffer
	require.NoError(t, gokeepasslib.NewEncoder(&buf).Encode(db))
	return buf.Bytes()
}

func passwordOnly(s string) vault.Credentials {
	return vault.Credentials{Password: secret.CopyBuffer([]byte(s))}
}

// fakeClock is a settable time source shared by the service and the cache.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
