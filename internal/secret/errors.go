// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

import "errors"

var (
	ErrKeyNotFound = errors.New("secret key not found")
	ErrKeyExpired  = errors.New("secret key expired")
	ErrKeyRevoked  = errors.New("secret key revoked")

	ErrInvalidKey          = errors.New("invalid secret key")
	ErrKeyringUnsupported  = errors.New("kernel keyring is not supported on this platform")
	ErrUnknownKeyStoreKind = errors.New("unknown key store kind")
	ErrUnknownKeyring      = errors.New("unknown keyring")
)

// IsGone reports whether err means the key no longer exists in a usable form.
// Callers treat such keys as a finished session rather than a failure.
func IsGone(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrKeyExpired) ||
		errors.Is(err, ErrKeyRevoked)
}
