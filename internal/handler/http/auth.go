// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

// authenticated reports whether the vault source and the user's vault are
// ready. Only checkAuth-approved requests get here.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := sessionFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	identity, _ := utils.GetIdentityFromContext(ctx)

	status := models.AuthStatus{
		Backend: h.services.VaultService.SourceReady(),
		DB:      h.services.VaultService.IsOpen(ctx, sess, identity),
	}

	code := http.StatusOK
	if !status.Backend || !status.DB {
		code = http.StatusUnauthorized
	}
	utils.WriteJSON(w, models.Response{Success: code == http.StatusOK, Data: status}, code)
}

func (h *Handler) userLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := parseForm(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	req := userLoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := sessionFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.services.AuthService.Login(r.Context(), sess, req.Username, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("user login failed")
		h.writeError(w, r, err)
		return
	}

	log.Info().Str("username", req.Username).Msg("user logged in")
	utils.WriteJSON(w, models.OK(result), http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	identity, _ := utils.GetIdentityFromContext(r.Context())

	logoutType, err := h.services.AuthService.Logout(r.Context(), sess, identity, h.host(r))
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("logout failed")
		h.writeError(w, r, err)
		return
	}

	logger.FromRequest(r).Info().Msg("user logged out")
	utils.WriteJSON(w, models.OK(logoutType), http.StatusOK)
}

// callbackUserAuth completes a redirect login. The result is embedded into
// index.html for the UI to pick up; without a UI it is plain JSON.
func (h *Handler) callbackUserAuth(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	status := http.StatusOK
	response := models.Response{}

	sess, err := sessionFromRequest(r)
	if err == nil {
		var result models.LoginResult
		result, err = h.services.AuthService.Callback(r.Context(), sess, r.URL.Query(), h.host(r))
		response = models.OK(result)
	}
	if err != nil {
		log.Warn().Err(err).Msg("federated login failed")
		var message string
		status, message = responseFromError(err)
		response = models.Fail(message)
	}

	page, err := h.indexWithResponse(response)
	if err != nil {
		log.Debug().Err(err).Msg("index.html not available, answering with json")
		utils.WriteJSON(w, response, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(page)
}

// indexWithResponse injects response as window.VaultBrokerResponse right
// before </head>. json.Marshal escapes <, > and &, so the payload cannot
// close the script element.
func (h *Handler) indexWithResponse(response models.Response) ([]byte, error) {
	page, err := os.ReadFile(filepath.Join(h.publicDir, "index.html"))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	script := append([]byte("<script>window.VaultBrokerResponse = "), payload...)
	script = append(script, []byte(";</script></head>")...)

	return bytes.Replace(page, []byte("</head>"), script, 1), nil
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.publicDir, "index.html"))
}
