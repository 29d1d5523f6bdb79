// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/cache"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/service"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/stretchr/testify/assert"
)

func TestResponseFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "incorrect credentials", err: auth.ErrIncorrectCredentials, wantStatus: http.StatusUnauthorized, wantMessage: "incorrect credentials"},
		{name: "wrapped nonce", err: fmt.Errorf("callback: %w", auth.ErrInvalidNonce), wantStatus: http.StatusUnauthorized, wantMessage: "invalid nonce"},
		{name: "joined with destroy error", err: errors.Join(auth.ErrInvalidState, errors.New("destroy failed")), wantStatus: http.StatusUnauthorized, wantMessage: "invalid csrf token (state)"},
		{name: "expired", err: fmt.Errorf("%w: %w", service.ErrVaultExpired, cache.ErrExpired), wantStatus: http.StatusUnauthorized, wantMessage: "database session expired"},
		{name: "closed", err: service.ErrVaultClosed, wantStatus: http.StatusUnauthorized, wantMessage: "database not open"},
		{name: "already open", err: service.ErrVaultAlreadyOpen, wantStatus: http.StatusBadRequest, wantMessage: "database already open"},
		{name: "decode", err: fmt.Errorf("x: %w", vault.ErrDecode), wantStatus: http.StatusUnauthorized, wantMessage: "failed to open database"},
		{name: "not found", err: vault.ErrEntryNotFound, wantStatus: http.StatusNotFound, wantMessage: "entry not found"},
		{name: "invalid request", err: fmt.Errorf("%w: Key: 'Term'", ErrInvalidRequest), wantStatus: http.StatusBadRequest, wantMessage: "invalid request"},
		{name: "session backend", err: session.ErrNoSession, wantStatus: http.StatusInternalServerError, wantMessage: "Internal Server Error"},
		{name: "unknown", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantMessage: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := responseFromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestResponseFromError_NoOverlaps(t *testing.T) {
	// every sentinel must resolve to its own entry
	for target, status := range errorStatusMap {
		got, message := responseFromError(target)
		assert.Equal(t, status, got, target.Error())
		assert.Equal(t, target.Error(), message)
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	h := &Handler{logger: logger.Nop()}
	rec := httptest.NewRecorder()

	h.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("ldap://10.0.0.5 refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
