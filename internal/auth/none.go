// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"

	"github.com/MKhiriev/go-vault-broker/models"
)

// None rejects every login. It is the default so that a broker started
// without auth configuration is closed rather than open.
type None struct {
	base
}

func (*None) Login(context.Context, string, string) (models.Identity, error) {
	return models.Identity{}, ErrIncorrectCredentials
}
