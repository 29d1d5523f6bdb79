// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import "errors"

var (
	// ErrDecode means the vault could not be opened with the given
	// credentials, or is not a KDBX file.
	ErrDecode        = errors.New("failed to open database")
	ErrNoCredentials = errors.New("password or keyfile required")

	ErrNoKeyfile     = errors.New("no keyfile configured")
	ErrNoLocation    = errors.New("database location not configured nor provided by the identity")
	ErrUnknownSource = errors.New("unknown vault source")
	ErrSourceStatus  = errors.New("unexpected status from vault source")
	ErrGroupNotFound = errors.New("group not found")
	ErrEntryNotFound = errors.New("entry not found")
	ErrFieldNotFound = errors.New("field not found")
	ErrNotProtected  = errors.New("not a protected field")
	ErrIconNotFound  = errors.New("icon not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrInvalidSearch = errors.New("invalid search term")

	ErrNoOTP      = errors.New("entry has no otp")
	ErrInvalidOTP = errors.New("invalid otp settings")
)
