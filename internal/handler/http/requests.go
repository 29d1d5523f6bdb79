// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
)

// maxFormSize bounds login forms, keyfile included.
const maxFormSize = 1 << 20

type userLoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type dbLoginRequest struct {
	Password string `validate:"required_without=Keyfile"`
	Keyfile  string `validate:"omitempty,base64"`
}

type idQuery struct {
	ID string `validate:"required"`
}

type protectedQuery struct {
	EntryID string `validate:"required"`
	Name    string `validate:"required"`
}

type fileQuery struct {
	EntryID  string `validate:"required"`
	Filename string `validate:"required"`
}

type searchQuery struct {
	Term string `validate:"required"`
}

// parseForm reads an url-encoded or multipart form of bounded size.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func (h *Handler) validateRequest(req any) error {
	if err := h.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// credentials turns the form into vault credentials. The caller owns the
// result and must wipe it.
func (req dbLoginRequest) credentials() (vault.Credentials, error) {
	var creds vault.Credentials
	if req.Password != "" {
		creds.Password = secret.NewBuffer([]byte(req.Password))
	}
	if req.Keyfile != "" {
		keyfile, err := base64.StdEncoding.DecodeString(req.Keyfile)
		if err != nil {
			creds.Wipe()
			return vault.Credentials{}, fmt.Errorf("%w: %w", ErrInvalidKeyfile, err)
		}
		creds.Keyfile = secret.NewBuffer(keyfile)
	}
	return creds, nil
}
