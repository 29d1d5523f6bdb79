// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/mock"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/models"
)

const host = "https://vault.example"

// newTestAuthSvc builds an authService backed by mocks
func newTestAuthSvc(t *testing.T, ctrl *gomock.Controller) (*authService, *mock.MockBackend, *mock.MockVaultService) {
	t.Helper()
	backend := mock.NewMockBackend(ctrl)
	vaultSvc := mock.NewMockVaultService(ctrl)

	svc := NewAuthService(backend, auth.Cache{}, vaultSvc, 10*time.Minute, 65*time.Minute, logger.Nop()).(*authService)
	return svc, backend, vaultSvc
}

func loggedIn(t *testing.T, identity models.Identity) *session.Memory {
	t.Helper()
	sess := session.NewMemory(nil)
	require.NoError(t, session.SetIdentity(sess, identity))
	require.NoError(t, sess.Insert(session.KeyCSRF, "csrf"))
	return sess
}

// ── LoginType ────────────────────────────────────────────────────────────────

func TestAuthService_LoginType(t *testing.T) {
	tests := []struct {
		name      string
		loginType models.LoginType
		wantState bool
	}{
		{name: "mask", loginType: models.LoginType{Kind: models.LoginMask}},
		{name: "none", loginType: models.LoginType{Kind: models.LoginNone}},
		{
			name:      "redirect keeps state",
			loginType: models.LoginType{Kind: models.LoginRedirect, URL: "https://idp.example/auth", State: `{"csrf_token":"s"}`},
			wantState: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, backend, _ := newTestAuthSvc(t, ctrl)
			sess := session.NewMemory(nil)

			backend.EXPECT().LoginType(host, auth.Cache{}).Return(tt.loginType, nil)

			got, err := svc.LoginType(context.Background(), sess, host)
			require.NoError(t, err)
			assert.Equal(t, tt.loginType, got)

			state, ok, _ := sess.Get(session.KeyAuthState)
			assert.Equal(t, tt.wantState, ok)
			assert.Equal(t, tt.loginType.State, state)
		})
	}
}

func TestAuthService_LoginType_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)

	backend.EXPECT().LoginType(host, auth.Cache{}).Return(models.LoginType{}, auth.ErrNotInitialized)
	_, err := svc.LoginType(context.Background(), session.NewMemory(nil), host)
	assert.ErrorIs(t, err, auth.ErrNotInitialized)

	sess := session.NewMemory(nil)
	sess.Err = errors.New("session backend down")
	backend.EXPECT().LoginType(host, auth.Cache{}).Return(models.LoginType{Kind: models.LoginRedirect, State: "s"}, nil)
	_, err = svc.LoginType(context.Background(), sess, host)
	assert.ErrorIs(t, err, sess.Err)
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestAuthService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(nil)

	backend.EXPECT().Login(gomock.Any(), "alice", "hunter2").Return(alice, nil)

	got, err := svc.Login(context.Background(), sess, "alice", "hunter2")
	require.NoError(t, err)

	assert.Len(t, got.CSRFToken, CSRFTokenLength)
	assert.Equal(t, models.LoginSettings{CN: "Alice", Timeout: 600, Interval: 3900}, got.Settings)

	csrf, _, _ := sess.Get(session.KeyCSRF)
	assert.Equal(t, got.CSRFToken, csrf)
	identity, ok, err := session.Identity(sess)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice, identity)
}

func TestAuthService_Login_FreshTokenPerLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)

	backend.EXPECT().Login(gomock.Any(), "alice", "hunter2").Return(alice, nil).Times(2)

	first, err := svc.Login(context.Background(), session.NewMemory(nil), "alice", "hunter2")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), session.NewMemory(nil), "alice", "hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first.CSRFToken, second.CSRFToken)
}

func TestAuthService_Login_AlreadyLoggedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, _ := newTestAuthSvc(t, ctrl)

	_, err := svc.Login(context.Background(), loggedIn(t, alice), "alice", "hunter2")

	assert.ErrorIs(t, err, ErrAlreadyLoggedIn)
}

func TestAuthService_Login_IncorrectCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(nil)

	backend.EXPECT().Login(gomock.Any(), "alice", "wrong").Return(models.Identity{}, auth.ErrIncorrectCredentials)

	_, err := svc.Login(context.Background(), sess, "alice", "wrong")

	assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
	assert.Empty(t, sess.Values())
}

func TestAuthService_Login_CorruptSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(map[string]string{session.KeyUser: "{not json"})

	_, err := svc.Login(context.Background(), sess, "alice", "hunter2")

	assert.ErrorIs(t, err, session.ErrCorrupted)
}

// ── Callback ─────────────────────────────────────────────────────────────────

func TestAuthService_Callback_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(map[string]string{session.KeyAuthState: "flow-state"})
	params := url.Values{"code": {"abc"}, "state": {"s"}}

	gomock.InOrder(
		backend.EXPECT().SessionKeys().Return([]string{session.KeyAuthState}),
		backend.EXPECT().Callback(gomock.Any(), "flow-state", auth.Cache{}, params, host).DoAndReturn(
			func(context.Context, string, auth.Cache, url.Values, string) (models.Identity, error) {
				_, ok, _ := sess.Get(session.KeyAuthState)
				assert.False(t, ok, "flow state still in session during callback")
				return alice, nil
			},
		),
	)

	got, err := svc.Callback(context.Background(), sess, params, host)
	require.NoError(t, err)

	assert.Len(t, got.CSRFToken, CSRFTokenLength)
	assert.Equal(t, "Alice", got.Settings.CN)
	identity, ok, _ := session.Identity(sess)
	require.True(t, ok)
	assert.Equal(t, alice, identity)
}

func TestAuthService_Callback_NoFlowState(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(map[string]string{"other": "x"})

	_, err := svc.Callback(context.Background(), sess, url.Values{"code": {"abc"}}, host)

	assert.ErrorIs(t, err, auth.ErrFlowState)
	assert.True(t, sess.Destroyed())
}

func TestAuthService_Callback_BackendFailureDestroysSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)
	sess := session.NewMemory(map[string]string{session.KeyAuthState: "flow-state"})
	params := url.Values{"code": {"abc"}, "state": {"tampered"}}

	backend.EXPECT().SessionKeys().Return([]string{session.KeyAuthState})
	backend.EXPECT().Callback(gomock.Any(), "flow-state", auth.Cache{}, params, host).Return(models.Identity{}, auth.ErrInvalidState)

	_, err := svc.Callback(context.Background(), sess, params, host)
	assert.ErrorIs(t, err, auth.ErrInvalidState)
	assert.True(t, sess.Destroyed())

	// replaying the same callback finds no flow state any more
	_, err = svc.Callback(context.Background(), sess, params, host)
	assert.ErrorIs(t, err, auth.ErrFlowState)
}

func TestAuthService_Callback_AlreadyLoggedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _, _ := newTestAuthSvc(t, ctrl)

	_, err := svc.Callback(context.Background(), loggedIn(t, alice), url.Values{}, host)

	assert.ErrorIs(t, err, ErrAlreadyLoggedIn)
}

// ── Logout ───────────────────────────────────────────────────────────────────

func TestAuthService_Logout(t *testing.T) {
	redirect := models.LogoutType{Kind: models.LogoutRedirect, URL: "https://idp.example/logout"}

	tests := []struct {
		name     string
		closeErr error
	}{
		{name: "vault closed"},
		{name: "close failure does not fail logout", closeErr: errors.New("keyring unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, backend, vaultSvc := newTestAuthSvc(t, ctrl)
			sess := loggedIn(t, alice)

			gomock.InOrder(
				backend.EXPECT().LogoutType(alice, host, auth.Cache{}).Return(redirect, nil),
				vaultSvc.EXPECT().Close(gomock.Any(), sess, alice).Return(tt.closeErr),
			)

			got, err := svc.Logout(context.Background(), sess, alice, host)
			require.NoError(t, err)

			assert.Equal(t, redirect, got)
			assert.True(t, sess.Destroyed())
		})
	}
}

func TestAuthService_Logout_LogoutTypeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, backend, _ := newTestAuthSvc(t, ctrl)
	sess := loggedIn(t, alice)

	backend.EXPECT().LogoutType(alice, host, auth.Cache{}).Return(models.LogoutType{}, auth.ErrNotInitialized)

	_, err := svc.Logout(context.Background(), sess, alice, host)

	assert.ErrorIs(t, err, ErrLogoutType)
	assert.False(t, sess.Destroyed())
}
