// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

// Defaults applied when no other source sets a value.
const (
	DefaultHTTPAddress         = "127.0.0.1:8080"
	DefaultReadTimeout         = 15 * time.Second
	DefaultWriteTimeout        = 30 * time.Second
	DefaultIdleTimeout         = 60 * time.Second
	DefaultSessionLifetime     = 12 * time.Hour
	DefaultVaultSessionTimeout = 10 * time.Minute
	DefaultAuthCheckInterval   = 65 * time.Minute
	DefaultPublicDir           = "public"
	DefaultLDAPURI             = "ldap://localhost:389"
	DefaultLDAPTimeout         = 10 * time.Second
	DefaultHTTPSourceTimeout   = 30 * time.Second
	DefaultSweepSchedule       = "@every 1m"
)

type configBuilder struct {
	configs []*StructuredConfig
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*StructuredConfig, 0, 4),
	}
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(StructuredConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (b *configBuilder) withDotEnv(files ...string) *configBuilder {
	if err := loadDotEnv(files...); err != nil {
		b.err = errors.Join(b.err, err)
	}

	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &StructuredConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags(args []string) *configBuilder {
	flags, err := ParseFlags(args)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, flags)
	return b
}

func (b *configBuilder) withJSON() *configBuilder {
	var jsonPath string

	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			jsonPath = cfg.JSONFilePath
			break
		}
	}

	if jsonPath != "" {
		jsonCfg, err := parseJSON(jsonPath)
		if err != nil {
			b.err = errors.Join(b.err, err)
			return b
		}
		b.configs = append(b.configs, jsonCfg)
	}

	return b
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, defaultConfig())
	return b
}

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			LogLevel:            "info",
			SessionLifetime:     DefaultSessionLifetime,
			VaultSessionTimeout: DefaultVaultSessionTimeout,
			AuthCheckInterval:   DefaultAuthCheckInterval,
			PublicDir:           DefaultPublicDir,
		},
		Server: Server{
			HTTPAddress:  DefaultHTTPAddress,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		Auth: Auth{
			Backend: "none",
			LDAP: LDAP{
				URI:            DefaultLDAPURI,
				Scope:          "sub",
				LoginAttribute: "uid",
				Timeout:        DefaultLDAPTimeout,
			},
			OIDC: OIDC{
				Scopes: []string{"openid", "profile"},
			},
		},
		Vault: Vault{
			Backend:  "filesystem",
			KeyStore: "auto",
			Keyring:  "session",
			HTTP: HTTPSource{
				Timeout: DefaultHTTPSourceTimeout,
			},
			Search: Search{
				Fields: []string{"title", "username", "tags", "notes", "url"},
			},
		},
		RateLimit: RateLimit{
			LoginPerMinute: 10,
			Burst:          5,
		},
		Workers: Workers{
			SweepSchedule: DefaultSweepSchedule,
		},
	}
}
