// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllSections(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_LOG_LEVEL":             "debug",
		"APP_SESSION_SECRET":        "0123456789abcdef0123456789abcdef",
		"APP_COOKIE_SECURE":         "true",
		"APP_VAULT_SESSION_TIMEOUT": "5m",
		"APP_AUTH_CHECK_INTERVAL":   "1h",
		"APP_EXTERNAL_URL":          "https://vault.example.com",

		"SERVER_ADDRESS":      "127.0.0.1:8443",
		"SERVER_READ_TIMEOUT": "3s",

		"AUTH_BACKEND":                 "ldap",
		"AUTH_HTPASSWD_PATH":           "/etc/htpasswd",
		"AUTH_LDAP_URI":                "ldaps://ldap.example.com",
		"AUTH_LDAP_BASE_DN":            "dc=example,dc=com",
		"AUTH_LDAP_DATABASE_ATTRIBUTE": "vaultPath",
		"AUTH_OIDC_ISSUER":             "https://id.example.com",
		"AUTH_OIDC_SCOPES":             "openid,email",

		"VAULT_BACKEND":             "http",
		"VAULT_FS_DB_LOCATION":      "/srv/vault.kdbx",
		"VAULT_HTTP_DATABASE_URL":   "https://files.example.com/vault.kdbx",
		"VAULT_HTTP_BEARER":         "token",
		"VAULT_KEY_STORE":           "memory",
		"VAULT_SEARCH_FIELDS":       "title,url",
		"VAULT_SEARCH_EXTRA_FIELDS": "false",
		"VAULT_SEARCH_ALLOW_REGEX":  "true",

		"RATE_LIMIT_LOGIN_PER_MINUTE": "20",
		"WORKERS_SWEEP_SCHEDULE":      "@every 30s",
	})

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.App.SessionSecret)
	assert.True(t, cfg.App.CookieSecure)
	assert.Equal(t, 5*time.Minute, cfg.App.VaultSessionTimeout)
	assert.Equal(t, time.Hour, cfg.App.AuthCheckInterval)
	assert.Equal(t, "https://vault.example.com", cfg.App.ExternalURL)

	assert.Equal(t, "127.0.0.1:8443", cfg.Server.HTTPAddress)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "ldap", cfg.Auth.Backend)
	assert.Equal(t, "/etc/htpasswd", cfg.Auth.Htpasswd.Path)
	assert.Equal(t, "ldaps://ldap.example.com", cfg.Auth.LDAP.URI)
	assert.Equal(t, "dc=example,dc=com", cfg.Auth.LDAP.BaseDN)
	assert.Equal(t, "vaultPath", cfg.Auth.LDAP.DatabaseAttribute)
	assert.Equal(t, "https://id.example.com", cfg.Auth.OIDC.Issuer)
	assert.Equal(t, []string{"openid", "email"}, cfg.Auth.OIDC.Scopes)

	assert.Equal(t, "http", cfg.Vault.Backend)
	assert.Equal(t, "/srv/vault.kdbx", cfg.Vault.Filesystem.DBLocation)
	assert.Equal(t, "https://files.example.com/vault.kdbx", cfg.Vault.HTTP.DatabaseURL)
	assert.Equal(t, "token", cfg.Vault.HTTP.Bearer)
	assert.Equal(t, "memory", cfg.Vault.KeyStore)
	assert.Equal(t, []string{"title", "url"}, cfg.Vault.Search.Fields)
	assert.False(t, cfg.Vault.Search.IncludeExtraFields())
	assert.True(t, cfg.Vault.Search.AllowRegex)

	assert.Equal(t, 20, cfg.RateLimit.LoginPerMinute)
	assert.Equal(t, "@every 30s", cfg.Workers.SweepSchedule)
}

func TestParseEnv_Empty(t *testing.T) {
	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Empty(t, cfg.Auth.Backend)
	assert.Nil(t, cfg.Vault.Search.ExtraFields)
	assert.Zero(t, cfg.App.VaultSessionTimeout)
}

func TestParseEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad duration", key: "SERVER_WRITE_TIMEOUT", val: "soon"},
		{name: "bad bool", key: "APP_COOKIE_SECURE", val: "maybe"},
		{name: "bad int", key: "RATE_LIMIT_BURST", val: "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			err := parseEnv(&StructuredConfig{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error getting env configs")
		})
	}
}
