// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import "github.com/MKhiriev/go-vault-broker/internal/secret"

// Credentials unlock a vault: a password, a keyfile, or both.
type Credentials struct {
	Password *secret.Buffer
	Keyfile  *secret.Buffer
}

// Wipe zeroes both secrets.
func (c Credentials) Wipe() {
	c.Password.Wipe()
	c.Keyfile.Wipe()
}
