// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

var (
	// ErrInvalidRequest is returned when form or query parameters fail
	// validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidKeyfile is returned when the uploaded keyfile is not valid
	// base64.
	ErrInvalidKeyfile = errors.New("keyfile must be base64 encoded")
)
