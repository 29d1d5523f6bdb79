// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

const csrfHeader = "X-CSRF-Token"

// checkAuth gates every request on the session identity.
//
// Without an identity only public paths are served; anything else gets 401
// along with the login type the client should offer. With an identity,
// every path except the public ones and icons must carry the session's CSRF
// token in the X-CSRF-Token header.
//
// A session cookie that fails to decode is destroyed and the request is
// treated as unauthenticated. Other session failures are 500.
func (h *Handler) checkAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		sess, err := sessionFromRequest(r)
		if err != nil {
			log.Err(err).Msg("no session attached to request")
			h.writeError(w, r, err)
			return
		}

		identity, ok, err := session.Identity(sess)
		if errors.Is(err, session.ErrCorrupted) {
			log.Warn().Err(err).Msg("discarding corrupted session")
			if err = sess.Destroy(); err != nil {
				log.Err(err).Msg("failed to destroy corrupted session")
				h.writeError(w, r, err)
				return
			}
			identity, ok, err = models.Identity{}, false, nil
		}
		if err != nil {
			log.Err(err).Msg("failed to read session identity")
			h.writeError(w, r, err)
			return
		}

		if !ok {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}
			h.writeUnauthorized(w, r, sess)
			return
		}

		if !isCSRFExempt(r) {
			expected, found, err := sess.Get(session.KeyCSRF)
			if err != nil {
				log.Err(err).Msg("failed to read csrf token from session")
				h.writeError(w, r, err)
				return
			}
			if !found || !validCSRF(r.Header.Get(csrfHeader), expected) {
				log.Warn().Str("user_id", identity.ID).Msg("csrf token mismatch")
				utils.WriteJSON(w, models.Fail("csrf token mismatch"), http.StatusForbidden)
				return
			}
		}

		ctx := utils.WithIdentity(r.Context(), identity)
		ctx = log.WithUser(identity.ID).WithContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validCSRF(got, expected string) bool {
	if got == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// writeUnauthorized answers 401 with the login type. For redirect logins
// this starts a new flow, so the state is persisted in sess.
func (h *Handler) writeUnauthorized(w http.ResponseWriter, r *http.Request, sess session.Session) {
	data := models.UnauthorizedData{}

	loginType, err := h.services.AuthService.LoginType(r.Context(), sess, h.host(r))
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("failed to determine login type")
	} else {
		data.LoginType = &loginType
	}

	utils.WriteJSON(w, models.Response{Message: "unauthorized", Data: data}, http.StatusUnauthorized)
}

func isPublic(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case path == "/", strings.HasPrefix(path, pathAssetsPrefix):
		return true
	case r.Method == http.MethodPost && path == pathUserLogin:
		return true
	case r.Method == http.MethodGet && (path == auth.CallbackPath || path == pathVersion):
		return true
	}
	return false
}

func isCSRFExempt(r *http.Request) bool {
	if isPublic(r) {
		return true
	}
	return r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, pathIconPrefix)
}

// host is the externally visible base URL, used for OIDC redirects.
func (h *Handler) host(r *http.Request) string {
	if h.externalURL != "" {
		return strings.TrimSuffix(h.externalURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
