// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strings"

// Identity is the normalized result of a successful login, whichever
// backend produced it. It is stored in the session as JSON and never
// modified afterwards.
type Identity struct {
	// ID is stable and lowercase.
	ID string `json:"id"`

	// Name is shown in the UI.
	Name string `json:"name"`

	// VaultLocation and KeyfileLocation override the configured vault
	// source paths when the backend supplies them (LDAP attributes, OIDC
	// claims).
	VaultLocation   string `json:"vault_location,omitempty"`
	KeyfileLocation string `json:"keyfile_location,omitempty"`

	// OpaqueBackendData is round-tripped for the backend only, e.g. the
	// OIDC id_token used as logout hint.
	OpaqueBackendData string `json:"opaque_backend_data,omitempty"`
}

// NewIdentity lowercases id. An empty name falls back to id as the backend
// returned it.
func NewIdentity(id, name string) Identity {
	if name == "" {
		name = id
	}
	return Identity{ID: strings.ToLower(strings.TrimSpace(id)), Name: name}
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}
