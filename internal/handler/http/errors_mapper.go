// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/service"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
)

// errorStatusMap lists the errors a client may learn about. Their message is
// sent as is; everything else is a 500 with a generic message.
var errorStatusMap = map[error]int{
	ErrInvalidRequest: http.StatusBadRequest,
	ErrInvalidKeyfile: http.StatusBadRequest,

	auth.ErrIncorrectCredentials:    http.StatusUnauthorized,
	auth.ErrProvider:                http.StatusUnauthorized,
	auth.ErrFlowState:               http.StatusUnauthorized,
	auth.ErrInvalidState:            http.StatusUnauthorized,
	auth.ErrInvalidIDToken:          http.StatusUnauthorized,
	auth.ErrInvalidNonce:            http.StatusUnauthorized,
	auth.ErrMissingAccessTokenHash:  http.StatusUnauthorized,
	auth.ErrAccessTokenHashMismatch: http.StatusUnauthorized,
	auth.ErrUnsupportedSigningAlg:   http.StatusUnauthorized,
	auth.ErrCallbackUnsupported:     http.StatusBadRequest,

	service.ErrVaultExpired:     http.StatusUnauthorized,
	service.ErrVaultClosed:      http.StatusUnauthorized,
	service.ErrVaultAlreadyOpen: http.StatusBadRequest,
	service.ErrAlreadyLoggedIn:  http.StatusBadRequest,
	service.ErrLogoutType:       http.StatusUnauthorized,

	vault.ErrDecode:        http.StatusUnauthorized,
	vault.ErrNoCredentials: http.StatusBadRequest,
	vault.ErrGroupNotFound: http.StatusNotFound,
	vault.ErrEntryNotFound: http.StatusNotFound,
	vault.ErrFieldNotFound: http.StatusNotFound,
	vault.ErrIconNotFound:  http.StatusNotFound,
	vault.ErrFileNotFound:  http.StatusNotFound,
	vault.ErrNoOTP:         http.StatusNotFound,
	vault.ErrInvalidOTP:    http.StatusUnprocessableEntity,
	vault.ErrNotProtected:  http.StatusBadRequest,
	vault.ErrInvalidSearch: http.StatusBadRequest,
	vault.ErrSourceStatus:  http.StatusBadGateway,
}

// responseFromError resolves the status and client-facing message for err.
func responseFromError(err error) (int, string) {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status, target.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// writeError answers with the mapped status. Server-side failures are logged
// with the request's trace id.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := responseFromError(err)
	if status >= http.StatusInternalServerError {
		logger.FromRequest(r).Err(err).Int("status", status).Msg("request failed")
	}
	utils.WriteJSON(w, models.Fail(message), status)
}
