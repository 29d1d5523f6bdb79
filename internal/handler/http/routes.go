// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const apiPrefix = "/api/v1"

const (
	pathAuthenticated   = apiPrefix + "/authenticated"
	pathUserLogin       = apiPrefix + "/user_login"
	pathDBLogin         = apiPrefix + "/db_login"
	pathCloseDB         = apiPrefix + "/close_db"
	pathLogout          = apiPrefix + "/logout"
	pathGetGroups       = apiPrefix + "/get_groups"
	pathGetGroupEntries = apiPrefix + "/get_group_entries"
	pathGetEntry        = apiPrefix + "/get_entry"
	pathGetProtected    = apiPrefix + "/get_protected"
	pathGetOTP          = apiPrefix + "/get_otp"
	pathGetFile         = apiPrefix + "/get_file"
	pathSearchEntries   = apiPrefix + "/search_entries"
	pathIconPrefix      = apiPrefix + "/icon/"
	pathVersion         = apiPrefix + "/version"
	pathAssetsPrefix    = "/assets/"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, h.withSession, h.checkAuth)

	// login endpoints, throttled per client
	router.Group(func(r chi.Router) {
		r.Use(h.withLoginRateLimit)
		r.Post(pathUserLogin, h.userLogin)
		r.Post(pathDBLogin, h.dbLogin)
	})

	router.Group(func(r chi.Router) {
		r.Get(pathAuthenticated, h.authenticated)
		r.Post(pathCloseDB, h.closeDB)
		r.Post(pathLogout, h.logout)
		r.Get(pathVersion, h.getServerVersion)
	})

	// vault content
	router.Group(func(r chi.Router) {
		r.Get(pathGetGroups, h.getGroups)
		r.Get(pathGetGroupEntries, h.getGroupEntries)
		r.Get(pathGetEntry, h.getEntry)
		r.Get(pathGetProtected, h.getProtected)
		r.Get(pathGetOTP, h.getOTP)
		r.Get(pathGetFile, h.getFile)
		r.Get(pathSearchEntries, h.searchEntries)
		r.Get(pathIconPrefix+"{id}", h.getIcon)
	})

	router.Get(auth.CallbackPath, h.callbackUserAuth)
	router.Get("/", h.index)
	router.Handle(pathAssetsPrefix+"*", http.FileServer(http.Dir(h.publicDir)))

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
