// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/models"
)

// Backend names accepted by [New].
const (
	BackendNone     = "none"
	BackendTest     = "test"
	BackendHtpasswd = "htpasswd"
	BackendLDAP     = "ldap"
	BackendOIDC     = "oidc"
)

// CallbackPath is where identity providers redirect back to.
const CallbackPath = "/callback_user_auth"

// Cache holds what a backend's Init produced. Only the field of the
// configured backend is set.
type Cache struct {
	OIDC *OIDCProvider
}

// New builds the backend named by cfg.Backend. client is used for any
// outbound HTTP (OIDC discovery, token exchange, JWKS).
func New(cfg config.Auth, client *http.Client) (Backend, error) {
	switch cfg.Backend {
	case BackendNone, "":
		return &None{}, nil
	case BackendTest:
		return &Test{}, nil
	case BackendHtpasswd:
		return NewHtpasswd(cfg.Htpasswd), nil
	case BackendLDAP:
		return NewLDAP(cfg.LDAP), nil
	case BackendOIDC:
		return NewOIDC(cfg.OIDC, client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// base supplies the default hooks shared by credential-form backends.
type base struct{}

func (base) ValidateConfig() error { return nil }

func (base) Init(context.Context) (Cache, error) { return Cache{}, nil }

func (base) LoginType(string, Cache) (models.LoginType, error) {
	return models.LoginType{Kind: models.LoginMask}, nil
}

func (base) Callback(context.Context, string, Cache, url.Values, string) (models.Identity, error) {
	return models.Identity{}, ErrCallbackUnsupported
}

func (base) LogoutType(models.Identity, string, Cache) (models.LogoutType, error) {
	return models.LogoutType{Kind: models.LogoutNone}, nil
}

func (base) SessionKeys() []string { return nil }
