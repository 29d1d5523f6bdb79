// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-vault-broker/internal/config"
)

func bcryptLine(t *testing.T, user, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return user + ":" + string(h)
}

// hashes of "hunter2" as written by htpasswd and openssl passwd
const (
	apr1Hunter2   = "$apr1$r31.....$plRWvy3XbzxRYaBWYhhQm/"
	shaHunter2    = "{SHA}87u9ZqY9S/F0eUBXjsPQEDUw4h0="
	sshaHunter2   = "{SSHA}gK+fFFujqnweTpwCQ7Sp02gQxCJzYWx0"
	sha512Hunter2 = "$6$saltsalt$8iYtNHxjWRl.NF6oNZ5tF.iKFlQREaXBLlSmZKP6dy9l5z3vsooWNW0/GZ6Nej73/TFug6pIPSqbJoCT6dfnj."
)

func writeHtpasswd(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "htpasswd")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestHtpasswd_Login(t *testing.T) {
	path := writeHtpasswd(t,
		"# comment",
		"",
		bcryptLine(t, "alice", "hunter2"),
		"bob:"+apr1Hunter2,
		"carol:hunter2",
		"erin:"+shaHunter2,
		"frank:"+sshaHunter2,
		"grace:"+sha512Hunter2,
		"heidi:{SHA}not base64!",
		bcryptLine(t, "dave", "old"),
		bcryptLine(t, "dave", "new"),
	)
	backend := NewHtpasswd(config.Htpasswd{Path: path})
	require.NoError(t, backend.ValidateConfig())

	tests := []struct {
		name     string
		user     string
		password string
		wantID   string
	}{
		{name: "bcrypt", user: "alice", password: "hunter2", wantID: "alice"},
		{name: "apr1 md5", user: "bob", password: "hunter2", wantID: "bob"},
		{name: "sha1", user: "erin", password: "hunter2", wantID: "erin"},
		{name: "salted sha1", user: "frank", password: "hunter2", wantID: "frank"},
		{name: "sha512 crypt", user: "grace", password: "hunter2", wantID: "grace"},
		{name: "second line for same user", user: "dave", password: "new", wantID: "dave"},
		{name: "wrong password", user: "alice", password: "hunter3"},
		{name: "wrong apr1 password", user: "bob", password: "hunter3"},
		{name: "wrong sha1 password", user: "erin", password: "hunter3"},
		{name: "wrong sha512 crypt password", user: "grace", password: "hunter3"},
		{name: "plain text is rejected", user: "carol", password: "hunter2"},
		{name: "malformed hash", user: "heidi", password: "hunter2"},
		{name: "unknown user", user: "mallory", password: "hunter2"},
		{name: "empty password", user: "alice", password: ""},
		{name: "empty user", user: "", password: "hunter2"},
		{name: "comment is not a user", user: "# comment", password: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := backend.Login(context.Background(), tt.user, tt.password)
			if tt.wantID == "" {
				assert.ErrorIs(t, err, ErrIncorrectCredentials)
				assert.True(t, identity.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, identity.ID)
			assert.Equal(t, tt.user, identity.Name)
		})
	}
}

func TestHtpasswd_RereadsFile(t *testing.T) {
	path := writeHtpasswd(t, bcryptLine(t, "alice", "one"))
	backend := NewHtpasswd(config.Htpasswd{Path: path})

	_, err := backend.Login(context.Background(), "alice", "one")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(bcryptLine(t, "alice", "two")+"\n"), 0o600))

	_, err = backend.Login(context.Background(), "alice", "one")
	assert.ErrorIs(t, err, ErrIncorrectCredentials)
	_, err = backend.Login(context.Background(), "alice", "two")
	assert.NoError(t, err)
}

func TestHtpasswd_MissingFileIsNotACredentialError(t *testing.T) {
	backend := NewHtpasswd(config.Htpasswd{Path: filepath.Join(t.TempDir(), "missing")})

	_, err := backend.Login(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncorrectCredentials)
	assert.ErrorIs(t, backend.ValidateConfig(), ErrInvalidConfig)
}

func TestHtpasswd_ValidateConfig(t *testing.T) {
	assert.ErrorIs(t, NewHtpasswd(config.Htpasswd{}).ValidateConfig(), ErrInvalidConfig)
	assert.ErrorIs(t, NewHtpasswd(config.Htpasswd{Path: t.TempDir()}).ValidateConfig(), ErrInvalidConfig)
}
