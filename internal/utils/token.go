// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateToken returns a random alphanumeric string of length n drawn from
// crypto/rand. It is used for CSRF tokens, OIDC state and nonce values, and
// secret key ids.
//
// Panics if the system randomness source fails; there is no sensible way to
// continue without it.
func GenerateToken(n int) string {
	if n <= 0 {
		return ""
	}

	limit := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("utils: reading random bytes: " + err.Error())
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}

	return string(out)
}
