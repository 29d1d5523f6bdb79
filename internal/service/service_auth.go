// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

// CSRFTokenLength is the length of the per-session anti-forgery token.
const CSRFTokenLength = 32

// authService is the concrete implementation of AuthService. All state is
// read-only after construction.
type authService struct {
	backend auth.Backend

	// cache is whatever backend.Init produced, e.g. the discovered OIDC
	// provider.
	cache auth.Cache

	// vault is closed on logout.
	vault VaultService

	// vaultTimeout and checkInterval are reported to the UI after login.
	vaultTimeout  time.Duration
	checkInterval time.Duration

	logger *logger.Logger
}

func NewAuthService(backend auth.Backend, cache auth.Cache, vault VaultService, vaultTimeout, checkInterval time.Duration, logger *logger.Logger) AuthService {
	return &authService{
		backend:       backend,
		cache:         cache,
		vault:         vault,
		vaultTimeout:  vaultTimeout,
		checkInterval: checkInterval,
		logger:        logger,
	}
}

// LoginType returns the login step to present. For a redirect the backend's
// flow state is kept in the session until the callback.
func (a *authService) LoginType(ctx context.Context, sess session.Session, host string) (models.LoginType, error) {
	log := logger.FromContext(ctx)

	loginType, err := a.backend.LoginType(host, a.cache)
	if err != nil {
		log.Err(err).Msg("error determining login type")
		return models.LoginType{}, fmt.Errorf("error determining login type: %w", err)
	}

	if loginType.Kind == models.LoginRedirect {
		if err = sess.Insert(session.KeyAuthState, loginType.State); err != nil {
			log.Err(err).Msg("error saving auth state")
			return models.LoginType{}, fmt.Errorf("error saving auth state: %w", err)
		}
	}

	return loginType, nil
}

// Login verifies username and password with the backend and establishes
// the session.
//
// Returns ErrAlreadyLoggedIn when the session already carries an identity
// and auth.ErrIncorrectCredentials when the backend rejects the pair.
func (a *authService) Login(ctx context.Context, sess session.Session, username, password string) (models.LoginResult, error) {
	log := logger.FromContext(ctx).With().Str("username", username).Logger()

	if err := a.checkNotLoggedIn(sess); err != nil {
		return models.LoginResult{}, err
	}

	identity, err := a.backend.Login(ctx, username, password)
	if err != nil {
		log.Info().Err(err).Msg("user login failed")
		return models.LoginResult{}, err
	}

	result, err := a.establish(sess, identity)
	if err != nil {
		log.Err(err).Msg("error establishing session")
		return models.LoginResult{}, err
	}

	log.Info().Str("user_id", identity.ID).Msg("user login successful")
	return result, nil
}

// Callback completes a redirect login. Any failure after the flow state
// was read destroys the session, so a state can never be used twice.
func (a *authService) Callback(ctx context.Context, sess session.Session, params url.Values, host string) (models.LoginResult, error) {
	log := logger.FromContext(ctx)

	if err := a.checkNotLoggedIn(sess); err != nil {
		return models.LoginResult{}, err
	}

	state, ok, err := sess.Get(session.KeyAuthState)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("no auth state in session")
		}
		log.Info().Err(err).Msg("callback without auth state")
		return models.LoginResult{}, errors.Join(fmt.Errorf("%w: %w", auth.ErrFlowState, err), sess.Destroy())
	}

	for _, key := range a.backend.SessionKeys() {
		if err = sess.Remove(key); err != nil {
			log.Err(err).Str("key", key).Msg("error removing backend session key")
			return models.LoginResult{}, errors.Join(fmt.Errorf("error removing backend session key: %w", err), sess.Destroy())
		}
	}

	identity, err := a.backend.Callback(ctx, state, a.cache, params, host)
	if err != nil {
		log.Info().Err(err).Msg("user login callback failed")
		return models.LoginResult{}, errors.Join(err, sess.Destroy())
	}

	result, err := a.establish(sess, identity)
	if err != nil {
		log.Err(err).Msg("error establishing session")
		return models.LoginResult{}, err
	}

	log.Info().Str("user_id", identity.ID).Msg("user login successful")
	return result, nil
}

// Logout closes the vault on a best-effort basis and destroys the session.
// The returned descriptor tells the client whether to follow a provider
// logout URL.
func (a *authService) Logout(ctx context.Context, sess session.Session, identity models.Identity, host string) (models.LogoutType, error) {
	log := logger.FromContext(ctx)

	logoutType, err := a.backend.LogoutType(identity, host, a.cache)
	if err != nil {
		log.Err(err).Msg("error determining logout type")
		return models.LogoutType{}, fmt.Errorf("%w: %w", ErrLogoutType, err)
	}

	if err = a.vault.Close(ctx, sess, identity); err != nil {
		log.Warn().Err(err).Msg("error closing database on logout")
	}

	if err = sess.Destroy(); err != nil {
		log.Err(err).Msg("error destroying session")
		return models.LogoutType{}, fmt.Errorf("error destroying session: %w", err)
	}

	log.Info().Msg("logout successful")
	return logoutType, nil
}

func (a *authService) checkNotLoggedIn(sess session.Session) error {
	_, ok, err := session.Identity(sess)
	if err != nil {
		return fmt.Errorf("error reading identity from session: %w", err)
	}
	if ok {
		return ErrAlreadyLoggedIn
	}
	return nil
}

// establish stores the identity together with a fresh CSRF token.
func (a *authService) establish(sess session.Session, identity models.Identity) (models.LoginResult, error) {
	if err := session.SetIdentity(sess, identity); err != nil {
		return models.LoginResult{}, fmt.Errorf("error saving identity: %w", err)
	}

	token := utils.GenerateToken(CSRFTokenLength)
	if err := sess.Insert(session.KeyCSRF, token); err != nil {
		return models.LoginResult{}, fmt.Errorf("error saving csrf token: %w", err)
	}

	return models.LoginResult{
		CSRFToken: token,
		Settings: models.LoginSettings{
			CN:       identity.Name,
			Timeout:  int64(a.vaultTimeout / time.Second),
			Interval: int64(a.checkInterval / time.Second),
		},
	}, nil
}
