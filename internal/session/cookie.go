// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package session

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

const (
	DefaultCookieName = "vault_broker_session"

	hashKeySize  = 64
	blockKeySize = 32
)

type Config struct {
	// Secret is stretched with HKDF into the cookie signing and encryption
	// keys. When empty a random secret is generated, which invalidates all
	// sessions on restart.
	Secret     string
	CookieName string
	Secure     bool
	Lifetime   time.Duration
}

// CookieStore hands out CookieSessions backed by gorilla/sessions.
type CookieStore struct {
	store  *sessions.CookieStore
	name   string
	maxAge int
}

// NewCookieStore reports whether the secret was generated so the caller can
// warn about it.
func NewCookieStore(cfg Config) (*CookieStore, bool, error) {
	secret := []byte(cfg.Secret)
	generated := len(secret) == 0
	if generated {
		secret = make([]byte, hashKeySize)
		if _, err := rand.Read(secret); err != nil {
			return nil, false, fmt.Errorf("generating session secret: %w", err)
		}
	}

	hashKey, err := deriveKey(secret, "vault-broker session signing", hashKeySize)
	if err != nil {
		return nil, false, err
	}
	blockKey, err := deriveKey(secret, "vault-broker session encryption", blockKeySize)
	if err != nil {
		return nil, false, err
	}

	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	maxAge := int(cfg.Lifetime.Seconds())
	if maxAge > 0 {
		store.MaxAge(maxAge)
	}

	return &CookieStore{store: store, name: name, maxAge: maxAge}, generated, nil
}

func deriveKey(secret []byte, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return key, nil
}

// Load reads the session cookie from r. A cookie that fails to decode does
// not fail Load; the error is reported by every Get until the session is
// destroyed.
func (c *CookieStore) Load(r *http.Request) *CookieSession {
	sess, err := c.store.Get(r, c.name)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return &CookieSession{sess: sess, loadErr: err, maxAge: c.maxAge}
}

var _ Session = (*CookieSession)(nil)

// CookieSession buffers changes until Save writes the cookie.
type CookieSession struct {
	mu      sync.Mutex
	sess    *sessions.Session
	loadErr error
	maxAge  int
	dirty   bool
}

func (s *CookieSession) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	v, ok := s.sess.Values[key].(string)
	return v, ok, nil
}

func (s *CookieSession) Insert(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return s.loadErr
	}
	if s.sess.Options.MaxAge < 0 {
		s.sess.Options.MaxAge = s.maxAge
	}
	s.sess.Values[key] = value
	s.dirty = true
	return nil
}

func (s *CookieSession) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return s.loadErr
	}
	if _, ok := s.sess.Values[key]; ok {
		delete(s.sess.Values, key)
		s.dirty = true
	}
	return nil
}

// Destroy drops every value and expires the cookie. It also clears a load
// error, so a corrupted cookie can always be replaced.
func (s *CookieSession) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.sess.Values)
	s.sess.Options.MaxAge = -1
	s.loadErr = nil
	s.dirty = true
	return nil
}

// Save writes the cookie if anything changed. It must run before the
// response header is written.
func (s *CookieSession) Save(r *http.Request, w http.ResponseWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.sess.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.dirty = false
	return nil
}
