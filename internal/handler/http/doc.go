// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http is the broker's browser-facing API.
//
// Every request passes through the same chain: trace id, access log, cookie
// session, then the authentication gate. The gate decides between public
// pages, a 401 carrying the login type, and CSRF-checked access for logged-in
// users. Handlers stay thin and delegate to the service layer; the vault
// handlers render only what the client is allowed to see.
package http
