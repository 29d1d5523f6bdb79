// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package auth

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/models"
)

const defaultLDAPTimeout = 10 * time.Second

// ldapConn is the subset of *ldap.Conn used here.
type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Unbind() error
}

type ldapDialer func(ctx context.Context, uri string, timeout time.Duration) (ldapConn, error)

func dialLDAP(ctx context.Context, uri string, timeout time.Duration) (ldapConn, error) {
	conn, err := ldap.DialURL(uri, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			conn.SetTimeout(remaining)
		}
	}
	return conn, nil
}

// LDAP authenticates with a two-phase bind: the service account searches
// for exactly one entry matching the login, then a second connection binds
// as that entry's DN with the user's password.
type LDAP struct {
	base
	cfg  config.LDAP
	dial ldapDialer
}

func NewLDAP(cfg config.LDAP) *LDAP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLDAPTimeout
	}
	return &LDAP{cfg: cfg, dial: dialLDAP}
}

func (l *LDAP) ValidateConfig() error {
	if l.cfg.URI == "" {
		return fmt.Errorf("%w: ldap uri is empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(l.cfg.URI, "ldap://") && !strings.HasPrefix(l.cfg.URI, "ldaps://") {
		return fmt.Errorf("%w: ldap uri must start with ldap:// or ldaps://", ErrInvalidConfig)
	}
	if l.cfg.BaseDN == "" {
		return fmt.Errorf("%w: ldap base dn is empty", ErrInvalidConfig)
	}
	if l.cfg.BindDN == "" {
		return fmt.Errorf("%w: ldap bind dn is empty", ErrInvalidConfig)
	}
	if _, err := ldapScope(l.cfg.Scope); err != nil {
		return err
	}
	if l.cfg.Filter != "" {
		if _, err := ldap.CompileFilter(l.cfg.Filter); err != nil {
			return fmt.Errorf("%w: ldap filter: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (l *LDAP) Login(ctx context.Context, username, password string) (models.Identity, error) {
	if username == "" || password == "" {
		return models.Identity{}, ErrIncorrectCredentials
	}

	entry, err := l.find(ctx, username)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrIncorrectCredentials, err)
	}

	if err = l.bindAs(ctx, entry.DN, password); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrIncorrectCredentials, err)
	}

	identity := models.NewIdentity(entry.GetAttributeValue(l.loginAttribute()), entry.GetAttributeValue("cn"))
	if identity.IsZero() {
		return models.Identity{}, fmt.Errorf("%w: entry has no %s", ErrIncorrectCredentials, l.loginAttribute())
	}
	if l.cfg.DatabaseAttribute != "" {
		identity.VaultLocation = entry.GetAttributeValue(l.cfg.DatabaseAttribute)
	}
	if l.cfg.KeyfileAttribute != "" {
		identity.KeyfileLocation = entry.GetAttributeValue(l.cfg.KeyfileAttribute)
	}

	return identity, nil
}

func (l *LDAP) find(ctx context.Context, username string) (*ldap.Entry, error) {
	conn, err := l.dial(ctx, l.cfg.URI, l.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Unbind()

	if err = conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("service bind: %w", err)
	}

	scope, err := ldapScope(l.cfg.Scope)
	if err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(
		l.cfg.BaseDN,
		scope,
		ldap.NeverDerefAliases,
		2,
		int(l.cfg.Timeout.Seconds()),
		false,
		l.searchFilter(username),
		l.attributes(),
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, fmt.Errorf("search returned %d entries", len(result.Entries))
	}

	return result.Entries[0], nil
}

func (l *LDAP) bindAs(ctx context.Context, dn, password string) error {
	conn, err := l.dial(ctx, l.cfg.URI, l.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Unbind()

	if err = conn.Bind(dn, password); err != nil {
		return fmt.Errorf("user bind: %w", err)
	}
	return nil
}

func (l *LDAP) searchFilter(username string) string {
	return fmt.Sprintf("(&(%s=%s)%s)", l.loginAttribute(), ldap.EscapeFilter(username), l.cfg.Filter)
}

func (l *LDAP) attributes() []string {
	attrs := []string{"cn", l.loginAttribute()}
	if l.cfg.DatabaseAttribute != "" {
		attrs = append(attrs, l.cfg.DatabaseAttribute)
	}
	if l.cfg.KeyfileAttribute != "" {
		attrs = append(attrs, l.cfg.KeyfileAttribute)
	}
	return attrs
}

func (l *LDAP) loginAttribute() string {
	if l.cfg.LoginAttribute == "" {
		return "uid"
	}
	return l.cfg.LoginAttribute
}

func ldapScope(scope string) (int, error) {
	switch scope {
	case "base":
		return ldap.ScopeBaseObject, nil
	case "one":
		return ldap.ScopeSingleLevel, nil
	case "sub", "":
		return ldap.ScopeWholeSubtree, nil
	default:
		return 0, fmt.Errorf("%w: unknown ldap scope %q", ErrInvalidConfig, scope)
	}
}
