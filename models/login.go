// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// LoginKind tells the client which login step to present.
type LoginKind string

const (
	LoginMask     LoginKind = "mask"
	LoginNone     LoginKind = "none"
	LoginRedirect LoginKind = "redirect"
)

// LoginType describes the login step. For LoginRedirect, State holds
// backend-private flow data that the caller keeps in the session; it is
// never serialized to the client.
type LoginType struct {
	Kind  LoginKind `json:"type"`
	URL   string    `json:"url,omitempty"`
	State string    `json:"-"`
}

type LogoutKind string

const (
	LogoutNone     LogoutKind = "none"
	LogoutRedirect LogoutKind = "redirect"
)

type LogoutType struct {
	Kind LogoutKind `json:"type"`
	URL  string     `json:"url,omitempty"`
}

// LoginSettings is handed to the UI after a successful login.
type LoginSettings struct {
	CN       string `json:"cn"`
	Timeout  int64  `json:"timeout"`
	Interval int64  `json:"interval"`
}

type LoginResult struct {
	CSRFToken string        `json:"csrf_token"`
	Settings  LoginSettings `json:"settings"`
}

type AuthStatus struct {
	Backend bool `json:"backend"`
	DB      bool `json:"db"`
}
