// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/mock"
	"github.com/MKhiriev/go-vault-broker/internal/service"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testCSRF   = "csrf-token-for-tests"
	indexHTML  = "<html><head><title>vault</title></head><body></body></html>"
)

var alice = models.Identity{ID: "alice", Name: "Alice"}

// testEnv is a fully wired router with mocked services and a real cookie
// store.
type testEnv struct {
	vault    *mock.MockVaultService
	auth     *mock.MockAuthService
	appInfo  *mock.MockAppInfoService
	sessions *session.CookieStore
	handler  *Handler
	router   *chi.Mux
}

func newTestEnv(t *testing.T, opts ...func(*config.StructuredConfig)) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte(indexHTML), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(publicDir, "assets"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	cfg := config.StructuredConfig{
		App:   config.App{PublicDir: publicDir, ExternalURL: "https://broker.example"},
		Vault: config.Vault{Search: config.Search{Fields: []string{"title"}}},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sessions, generated, err := session.NewCookieStore(session.Config{Secret: testSecret})
	require.NoError(t, err)
	require.False(t, generated)

	env := &testEnv{
		vault:    mock.NewMockVaultService(ctrl),
		auth:     mock.NewMockAuthService(ctrl),
		appInfo:  mock.NewMockAppInfoService(ctrl),
		sessions: sessions,
	}
	services := &service.Services{
		AuthService:    env.auth,
		VaultService:   env.vault,
		AppInfoService: env.appInfo,
	}
	env.handler = NewHandler(services, sessions, cfg, logger.Nop())
	env.router = env.handler.Init()
	return env
}

// cookie builds a session cookie holding values.
func (e *testEnv) cookie(t *testing.T, fill func(s session.Session)) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	sess := e.sessions.Load(req)
	fill(sess)
	require.NoError(t, sess.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

// loggedIn is a session cookie for alice with a known CSRF token.
func (e *testEnv) loggedIn(t *testing.T) *http.Cookie {
	return e.cookie(t, func(s session.Session) {
		require.NoError(t, session.SetIdentity(s, alice))
		require.NoError(t, s.Insert(session.KeyCSRF, testCSRF))
	})
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// authedRequest is a request from alice carrying a valid CSRF header.
func (e *testEnv) authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(e.loggedIn(t))
	req.Header.Set(csrfHeader, testCSRF)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req
}

func formBody(values url.Values) io.Reader {
	return strings.NewReader(values.Encode())
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func sampleDatabase() *vault.Database {
	return &vault.Database{
		Root: vault.Group{
			ID:   "root-id",
			Name: "Alice",
			Entries: []vault.Entry{{
				ID:             "bank-id",
				CustomIconUUID: "icon-id",
				Fields: []vault.Field{
					{Key: vault.KeyTitle, Value: "Bank"},
					{Key: vault.KeyUserName, Value: "alice"},
					{Key: vault.KeyPassword, Value: "s3cr3t", Protected: true},
				},
			}},
		},
		Icons: map[string][]byte{"icon-id": []byte("\x89PNG")},
	}
}
