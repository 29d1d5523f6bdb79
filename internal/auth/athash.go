// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenHash computes the at_hash claim for accessToken: the left half
// of the digest matching the id token's signing algorithm, base64url without
// padding.
func accessTokenHash(rawIDToken, accessToken string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(rawIDToken, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}

	alg, _ := token.Header["alg"].(string)
	var h hash.Hash
	switch alg {
	case "RS256", "ES256", "PS256", "HS256":
		h = sha256.New()
	case "RS384", "ES384", "PS384", "HS384":
		h = sha512.New384()
	case "RS512", "ES512", "PS512", "HS512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSigningAlg, alg)
	}

	h.Write([]byte(accessToken))
	sum := h.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2]), nil
}

func verifyAccessTokenHash(rawIDToken, accessToken, expected string) error {
	if expected == "" {
		return ErrMissingAccessTokenHash
	}

	actual, err := accessTokenHash(rawIDToken, accessToken)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return ErrAccessTokenHashMismatch
	}
	return nil
}
