// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration of the broker. It is
// assembled from defaults, an optional JSON file, environment variables
// (optionally seeded from a .env file) and command-line flags.
//
// Struct tags:
//   - envPrefix: prefix applied to nested env lookups (caarlos0/env).
//   - env:       environment variable name for scalar fields.
//   - validate:  go-playground/validator rules checked after merging.
type StructuredConfig struct {
	App       App       `envPrefix:"APP_"`
	Server    Server    `envPrefix:"SERVER_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Vault     Vault     `envPrefix:"VAULT_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Workers   Workers   `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via CONFIG or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds session and presentation settings.
type App struct {
	// LogLevel is parsed by zerolog ("debug", "info", ...).
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`

	// SessionSecret seeds the cookie signing and encryption keys. When
	// empty a random secret is generated at startup.
	// Env: APP_SESSION_SECRET
	SessionSecret string `env:"SESSION_SECRET" validate:"omitempty,min=32"`

	// CookieSecure sets the Secure flag on the session cookie.
	// Env: APP_COOKIE_SECURE
	CookieSecure bool `env:"COOKIE_SECURE"`

	// SessionLifetime bounds the session cookie.
	// Env: APP_SESSION_LIFETIME
	SessionLifetime time.Duration `env:"SESSION_LIFETIME"`

	// VaultSessionTimeout is the sliding TTL of an unlocked vault: both the
	// cached blob and its key expire after this much inactivity.
	// Env: APP_VAULT_SESSION_TIMEOUT
	VaultSessionTimeout time.Duration `env:"VAULT_SESSION_TIMEOUT"`

	// AuthCheckInterval tells the UI how often to poll /authenticated.
	// Env: APP_AUTH_CHECK_INTERVAL
	AuthCheckInterval time.Duration `env:"AUTH_CHECK_INTERVAL"`

	// PublicDir holds index.html and the assets directory.
	// Env: APP_PUBLIC_DIR
	PublicDir string `env:"PUBLIC_DIR"`

	// ExternalURL is the externally visible base URL used for OIDC
	// redirects. Derived from the request when empty.
	// Env: APP_EXTERNAL_URL
	ExternalURL string `env:"EXTERNAL_URL" validate:"omitempty,url"`
}

// Server holds network settings for the HTTP listener.
type Server struct {
	// HTTPAddress in "host:port" form.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS" validate:"required,hostname_port"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT"`
}

// Auth selects and configures the identity backend.
type Auth struct {
	// Backend is one of none, test, htpasswd, ldap, oidc.
	// Env: AUTH_BACKEND
	Backend string `env:"BACKEND" validate:"oneof=none test htpasswd ldap oidc"`

	Htpasswd Htpasswd `envPrefix:"HTPASSWD_"`
	LDAP     LDAP     `envPrefix:"LDAP_"`
	OIDC     OIDC     `envPrefix:"OIDC_"`
}

type Htpasswd struct {
	// Env: AUTH_HTPASSWD_PATH
	Path string `env:"PATH"`
}

// LDAP configures the directory backend: a service bind to search for the
// user, then a bind as the found DN to verify the password.
type LDAP struct {
	URI string `env:"URI"`

	// Scope is one of base, one, sub.
	Scope string `env:"SCOPE" validate:"omitempty,oneof=base one sub"`

	BaseDN string `env:"BASE_DN"`

	// Filter is ANDed with the login attribute match, e.g. "(objectClass=person)".
	Filter string `env:"FILTER"`

	LoginAttribute string `env:"LOGIN_ATTRIBUTE"`
	BindDN         string `env:"BIND_DN"`
	BindPassword   string `env:"BIND_PASSWORD"`

	// Optional attributes carrying per-user vault and keyfile locations.
	DatabaseAttribute string `env:"DATABASE_ATTRIBUTE"`
	KeyfileAttribute  string `env:"KEYFILE_ATTRIBUTE"`

	Timeout time.Duration `env:"TIMEOUT"`
}

// OIDC configures the federated backend.
type OIDC struct {
	Issuer       string   `env:"ISSUER"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// Vault configures where vault files come from and how their keys are held.
type Vault struct {
	// Backend is one of filesystem, http, test.
	// Env: VAULT_BACKEND
	Backend string `env:"BACKEND" validate:"oneof=filesystem http test"`

	Filesystem Filesystem `envPrefix:"FS_"`
	HTTP       HTTPSource `envPrefix:"HTTP_"`

	// KeyStore is one of auto, keyring, memory.
	// Env: VAULT_KEY_STORE
	KeyStore string `env:"KEY_STORE" validate:"oneof=auto keyring memory"`

	// Keyring is one of session, process, user.
	// Env: VAULT_KEYRING
	Keyring string `env:"KEYRING" validate:"oneof=session process user"`

	Search Search `envPrefix:"SEARCH_"`
}

type Filesystem struct {
	DBLocation      string `env:"DB_LOCATION"`
	KeyfileLocation string `env:"KEYFILE_LOCATION"`
}

// HTTPSource fetches the vault (and optionally a keyfile) over HTTP, with
// either basic or bearer credentials.
type HTTPSource struct {
	DatabaseURL string        `env:"DATABASE_URL" validate:"omitempty,url"`
	KeyfileURL  string        `env:"KEYFILE_URL" validate:"omitempty,url"`
	Username    string        `env:"USERNAME"`
	Password    string        `env:"PASSWORD"`
	Bearer      string        `env:"BEARER"`
	Timeout     time.Duration `env:"TIMEOUT"`
}

// Search controls entry search.
type Search struct {
	// Fields is any of title, username, tags, notes, url.
	Fields []string `env:"FIELDS" envSeparator:"," validate:"dive,oneof=title username tags notes url"`

	// ExtraFields also searches custom string fields. Nil means true.
	ExtraFields *bool `env:"EXTRA_FIELDS"`

	AllowRegex bool `env:"ALLOW_REGEX"`
}

// IncludeExtraFields resolves the nil default of ExtraFields.
func (s Search) IncludeExtraFields() bool {
	return s.ExtraFields == nil || *s.ExtraFields
}

// RateLimit throttles login attempts per client IP.
type RateLimit struct {
	LoginPerMinute int `env:"LOGIN_PER_MINUTE" validate:"gte=0"`
	Burst          int `env:"BURST" validate:"gte=0"`
}

// Workers configures background jobs.
type Workers struct {
	// SweepSchedule is a robfig/cron spec for the expired-entry sweep.
	// Env: WORKERS_SWEEP_SCHEDULE
	SweepSchedule string `env:"SWEEP_SCHEDULE" validate:"required"`
}

// GetStructuredConfig loads, merges and validates the configuration.
// Earlier sources win: flags, then environment (including .env), then the
// JSON file, then defaults.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotEnv().
		withFlags(os.Args[1:]).
		withEnv().
		withJSON().
		withDefaults().
		build()
}
