// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

// Validation errors returned by [StructuredConfig.validate].
var (
	// ErrInvalidConfig wraps field-level validator failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidDuration indicates a timeout or lifetime that is not positive.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidAuthConfigs indicates the selected auth backend is missing
	// a required setting (htpasswd path, LDAP base DN, OIDC issuer...).
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidVaultConfigs indicates the selected vault source is missing
	// its location.
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
)
