// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
	"github.com/go-chi/chi/v5"
)

const iconCacheControl = "max-age=31536000, public, s-maxage=31536000"

type groupsResponse struct {
	Groups       vault.GroupNode `json:"groups"`
	LastSelected string          `json:"last_selected"`
}

func (h *Handler) dbLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := parseForm(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	req := dbLoginRequest{
		Password: r.PostForm.Get("password"),
		Keyfile:  r.PostForm.Get("keyfile"),
	}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	creds, err := req.credentials()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := sessionFromRequest(r)
	if err != nil {
		creds.Wipe()
		h.writeError(w, r, err)
		return
	}
	identity, _ := utils.GetIdentityFromContext(r.Context())

	// Unlock owns creds from here on
	if err = h.services.VaultService.Unlock(r.Context(), sess, identity, creds); err != nil {
		log.Warn().Err(err).Msg("failed to unlock database")
		h.writeError(w, r, err)
		return
	}

	log.Info().Msg("database unlocked")
	utils.WriteJSON(w, models.OK(nil), http.StatusOK)
}

func (h *Handler) closeDB(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	identity, _ := utils.GetIdentityFromContext(r.Context())

	if err = h.services.VaultService.Close(r.Context(), sess, identity); err != nil {
		h.writeError(w, r, err)
		return
	}

	logger.FromRequest(r).Info().Msg("database closed")
	utils.WriteJSON(w, models.OK(nil), http.StatusOK)
}

// openDatabase returns the caller's unlocked vault, or writes the error
// response and returns false.
func (h *Handler) openDatabase(w http.ResponseWriter, r *http.Request) (*vault.Database, bool) {
	sess, err := sessionFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	identity, _ := utils.GetIdentityFromContext(r.Context())

	db, err := h.services.VaultService.Open(r.Context(), sess, identity)
	if err != nil {
		logger.FromRequest(r).Debug().Err(err).Msg("database not available")
		h.writeError(w, r, err)
		return nil, false
	}
	return db, true
}

func (h *Handler) getGroups(w http.ResponseWriter, r *http.Request) {
	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	groups, lastSelected := db.Groups()
	utils.WriteJSON(w, models.OK(groupsResponse{Groups: groups, LastSelected: lastSelected}), http.StatusOK)
}

func (h *Handler) getGroupEntries(w http.ResponseWriter, r *http.Request) {
	req := idQuery{ID: r.URL.Query().Get("id")}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	entries, err := db.GroupEntries(req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, models.OK(entries), http.StatusOK)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	req := idQuery{ID: r.URL.Query().Get("id")}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	entry, err := db.Entry(req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, models.OK(entry), http.StatusOK)
}

func (h *Handler) getProtected(w http.ResponseWriter, r *http.Request) {
	req := protectedQuery{
		EntryID: r.URL.Query().Get("entry_id"),
		Name:    r.URL.Query().Get("name"),
	}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	value, err := db.Protected(req.EntryID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer value.Wipe()

	utils.WriteJSON(w, models.OK(string(value.Bytes())), http.StatusOK)
}

func (h *Handler) getOTP(w http.ResponseWriter, r *http.Request) {
	req := idQuery{ID: r.URL.Query().Get("id")}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	code, err := db.OTP(req.ID, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, models.OK(code), http.StatusOK)
}

// getFile streams an attachment as a download, never rendered inline.
func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	req := fileQuery{
		EntryID:  r.URL.Query().Get("entry_id"),
		Filename: r.URL.Query().Get("filename"),
	}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	data, err := db.Attachment(req.EntryID, req.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": req.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) searchEntries(w http.ResponseWriter, r *http.Request) {
	req := searchQuery{Term: r.URL.Query().Get("term")}
	if err := h.validateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	results, err := db.Search(req.Term, h.search)
	if err != nil {
		// the regexp error helps the user fix the pattern
		utils.WriteJSON(w, models.Fail("failed to search entries: "+err.Error()), http.StatusBadRequest)
		return
	}
	utils.WriteJSON(w, models.OK(results), http.StatusOK)
}

func (h *Handler) getIcon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	db, ok := h.openDatabase(w, r)
	if !ok {
		return
	}

	data, err := db.Icon(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	etag := `"` + id + `"`
	w.Header().Set("Cache-Control", iconCacheControl)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
