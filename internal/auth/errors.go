// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import "errors"

var (
	// ErrIncorrectCredentials is the only error a user ever sees for a
	// rejected login, whatever the reason.
	ErrIncorrectCredentials = errors.New("incorrect credentials")

	ErrCallbackUnsupported = errors.New("backend does not support callbacks")
	ErrUnknownBackend      = errors.New("unknown auth backend")
	ErrInvalidConfig       = errors.New("invalid auth backend configuration")
	ErrNotInitialized      = errors.New("auth backend not initialized")
)

// Federated flow violations. All of them end the login attempt and the
// session that carried it.
var (
	ErrProvider                = errors.New("identity provider error")
	ErrFlowState               = errors.New("missing or malformed login flow state")
	ErrInvalidState            = errors.New("invalid csrf token (state)")
	ErrInvalidIDToken          = errors.New("invalid id token")
	ErrInvalidNonce            = errors.New("invalid nonce")
	ErrMissingAccessTokenHash  = errors.New("access token hash is missing")
	ErrAccessTokenHashMismatch = errors.New("invalid access token")
	ErrUnsupportedSigningAlg   = errors.New("unsupported id token signing algorithm")
)
