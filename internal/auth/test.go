// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"
	"crypto/subtle"

	"github.com/MKhiriev/go-vault-broker/models"
)

const testCredential = "test"

// Test accepts exactly test/test. Development only.
type Test struct {
	base
}

func (*Test) Login(_ context.Context, username, password string) (models.Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(testCredential))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(testCredential))
	if userOK&passOK != 1 {
		return models.Identity{}, ErrIncorrectCredentials
	}

	return models.NewIdentity(testCredential, testCredential), nil
}
