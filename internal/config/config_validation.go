// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	durations := map[string]time.Duration{
		"server read timeout":   cfg.Server.ReadTimeout,
		"server write timeout":  cfg.Server.WriteTimeout,
		"server idle timeout":   cfg.Server.IdleTimeout,
		"session lifetime":      cfg.App.SessionLifetime,
		"vault session timeout": cfg.App.VaultSessionTimeout,
		"auth check interval":   cfg.App.AuthCheckInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s is %s", ErrInvalidDuration, name, d)
		}
	}

	switch cfg.Auth.Backend {
	case "htpasswd":
		if cfg.Auth.Htpasswd.Path == "" {
			return fmt.Errorf("%w: htpasswd path is required", ErrInvalidAuthConfigs)
		}
	case "ldap":
		if cfg.Auth.LDAP.URI == "" || cfg.Auth.LDAP.BaseDN == "" || cfg.Auth.LDAP.BindDN == "" {
			return fmt.Errorf("%w: ldap uri, base dn and bind dn are required", ErrInvalidAuthConfigs)
		}
	case "oidc":
		if cfg.Auth.OIDC.Issuer == "" || cfg.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("%w: oidc issuer and client id are required", ErrInvalidAuthConfigs)
		}
	}

	switch cfg.Vault.Backend {
	case "filesystem":
		if cfg.Vault.Filesystem.DBLocation == "" && cfg.Auth.Backend != "ldap" {
			return fmt.Errorf("%w: filesystem db location is required", ErrInvalidVaultConfigs)
		}
	case "http":
		if cfg.Vault.HTTP.DatabaseURL == "" {
			return fmt.Errorf("%w: http database url is required", ErrInvalidVaultConfigs)
		}
	}

	return nil
}
