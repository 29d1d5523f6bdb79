// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

const (
	flowTokenLength = 32

	// maxIDTokenHintLength keeps the logout hint from pushing the session
	// cookie past the 4096 byte browser limit.
	maxIDTokenHintLength = 2048
)

// OIDCProvider is the discovered provider, kept in [Cache].
type OIDCProvider struct {
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	endSession string
}

// flowState survives the redirect to the provider and back.
type flowState struct {
	CSRFToken    string `json:"csrf_token"`
	Nonce        string `json:"nonce"`
	PKCEVerifier string `json:"pkce_verifier"`
}

type oidcClaims struct {
	PreferredUsername string `json:"preferred_username"`
	DatabaseLocation  string `json:"database_location"`
	KeyfileLocation   string `json:"keyfile_location"`
}

// OIDC runs the authorization code flow with PKCE (S256), a nonce and a
// state token, and requires at_hash in the id token.
type OIDC struct {
	cfg    config.OIDC
	client *http.Client
}

func NewOIDC(cfg config.OIDC, client *http.Client) *OIDC {
	if client == nil {
		client = http.DefaultClient
	}
	return &OIDC{cfg: cfg, client: client}
}

func (o *OIDC) ValidateConfig() error {
	if o.cfg.Issuer == "" {
		return fmt.Errorf("%w: oidc issuer is empty", ErrInvalidConfig)
	}
	if u, err := url.Parse(o.cfg.Issuer); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: oidc issuer is not an absolute url", ErrInvalidConfig)
	}
	if o.cfg.ClientID == "" {
		return fmt.Errorf("%w: oidc client id is empty", ErrInvalidConfig)
	}
	return nil
}

// Init discovers the provider and its end_session_endpoint.
func (o *OIDC) Init(ctx context.Context) (Cache, error) {
	provider, err := oidc.NewProvider(o.clientContext(ctx), o.cfg.Issuer)
	if err != nil {
		return Cache{}, fmt.Errorf("%w: discovery: %w", ErrProvider, err)
	}

	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err = provider.Claims(&extra); err != nil {
		return Cache{}, fmt.Errorf("%w: discovery claims: %w", ErrProvider, err)
	}

	return Cache{OIDC: &OIDCProvider{
		provider:   provider,
		verifier:   provider.Verifier(&oidc.Config{ClientID: o.cfg.ClientID}),
		endSession: extra.EndSessionEndpoint,
	}}, nil
}

func (o *OIDC) LoginType(host string, cache Cache) (models.LoginType, error) {
	if cache.OIDC == nil {
		return models.LoginType{}, ErrNotInitialized
	}

	state := flowState{
		CSRFToken:    utils.GenerateToken(flowTokenLength),
		Nonce:        utils.GenerateToken(flowTokenLength),
		PKCEVerifier: oauth2.GenerateVerifier(),
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return models.LoginType{}, fmt.Errorf("error encoding flow state: %w", err)
	}

	authURL := o.oauth2Config(host, cache.OIDC).AuthCodeURL(
		state.CSRFToken,
		oidc.Nonce(state.Nonce),
		oauth2.S256ChallengeOption(state.PKCEVerifier),
	)

	return models.LoginType{
		Kind:  models.LoginRedirect,
		URL:   authURL,
		State: string(raw),
	}, nil
}

func (o *OIDC) Login(context.Context, string, string) (models.Identity, error) {
	return models.Identity{}, ErrIncorrectCredentials
}

func (o *OIDC) Callback(ctx context.Context, state string, cache Cache, params url.Values, host string) (models.Identity, error) {
	if providerErr := params.Get("error"); providerErr != "" {
		if desc := params.Get("error_description"); desc != "" {
			return models.Identity{}, fmt.Errorf("%w: error from auth server: %s: %s", ErrProvider, providerErr, desc)
		}
		return models.Identity{}, fmt.Errorf("%w: error from auth server: %s", ErrProvider, providerErr)
	}
	if cache.OIDC == nil {
		return models.Identity{}, ErrNotInitialized
	}

	var flow flowState
	if err := json.Unmarshal([]byte(state), &flow); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrFlowState, err)
	}
	if flow.CSRFToken == "" || flow.Nonce == "" || flow.PKCEVerifier == "" {
		return models.Identity{}, ErrFlowState
	}

	if subtle.ConstantTimeCompare([]byte(params.Get("state")), []byte(flow.CSRFToken)) != 1 {
		return models.Identity{}, ErrInvalidState
	}

	code := params.Get("code")
	if code == "" {
		return models.Identity{}, fmt.Errorf("%w: missing authorization code", ErrProvider)
	}

	ctx = o.clientContext(ctx)
	token, err := o.oauth2Config(host, cache.OIDC).Exchange(ctx, code, oauth2.VerifierOption(flow.PKCEVerifier))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: code exchange: %w", ErrProvider, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return models.Identity{}, fmt.Errorf("%w: server did not return an id token", ErrProvider)
	}

	idToken, err := cache.OIDC.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}

	if subtle.ConstantTimeCompare([]byte(idToken.Nonce), []byte(flow.Nonce)) != 1 {
		return models.Identity{}, ErrInvalidNonce
	}

	if err = verifyAccessTokenHash(rawIDToken, token.AccessToken, idToken.AccessTokenHash); err != nil {
		return models.Identity{}, err
	}

	var claims oidcClaims
	if err = idToken.Claims(&claims); err != nil {
		return models.Identity{}, fmt.Errorf("%w: claims: %w", ErrInvalidIDToken, err)
	}

	identity := models.NewIdentity(idToken.Subject, claims.PreferredUsername)
	identity.VaultLocation = claims.DatabaseLocation
	identity.KeyfileLocation = claims.KeyfileLocation
	if len(rawIDToken) <= maxIDTokenHintLength {
		identity.OpaqueBackendData = rawIDToken
	}

	return identity, nil
}

// LogoutType sends the user to the provider's end_session_endpoint when it
// is advertised. The id token hint is added when the login kept one.
func (o *OIDC) LogoutType(identity models.Identity, host string, cache Cache) (models.LogoutType, error) {
	if cache.OIDC == nil || cache.OIDC.endSession == "" {
		return models.LogoutType{Kind: models.LogoutNone}, nil
	}

	u, err := url.Parse(cache.OIDC.endSession)
	if err != nil {
		return models.LogoutType{}, fmt.Errorf("%w: end_session_endpoint: %w", ErrProvider, err)
	}
	q := u.Query()
	if identity.OpaqueBackendData != "" {
		q.Set("id_token_hint", identity.OpaqueBackendData)
	}
	q.Set("post_logout_redirect_uri", host)
	q.Set("client_id", o.cfg.ClientID)
	u.RawQuery = q.Encode()

	return models.LogoutType{Kind: models.LogoutRedirect, URL: u.String()}, nil
}

func (o *OIDC) SessionKeys() []string {
	return []string{session.KeyAuthState}
}

func (o *OIDC) oauth2Config(host string, p *OIDCProvider) *oauth2.Config {
	scopes := o.cfg.Scopes
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		scopes = append([]string{oidc.ScopeOpenID}, scopes...)
	}

	return &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		Endpoint:     p.provider.Endpoint(),
		RedirectURL:  host + CallbackPath,
		Scopes:       scopes,
	}
}

// clientContext routes go-oidc and oauth2 traffic through o.client.
func (o *OIDC) clientContext(ctx context.Context) context.Context {
	ctx = oidc.ClientContext(ctx, o.client)
	return context.WithValue(ctx, oauth2.HTTPClient, o.client)
}
