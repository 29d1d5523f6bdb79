// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrVaultAlreadyOpen = errors.New("database already open")
	ErrVaultClosed      = errors.New("database not open")
	ErrVaultExpired     = errors.New("database session expired")

	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrLogoutType      = errors.New("failed to retrieve logout type")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)
