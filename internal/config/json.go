// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] for the JSON file, with
// durations accepted as strings ("10m") or nanoseconds.
type StructuredJSONConfig struct {
	App struct {
		LogLevel            string   `json:"log_level"`
		SessionSecret       string   `json:"session_secret"`
		CookieSecure        bool     `json:"cookie_secure"`
		SessionLifetime     Duration `json:"session_lifetime"`
		VaultSessionTimeout Duration `json:"vault_session_timeout"`
		AuthCheckInterval   Duration `json:"auth_check_interval"`
		PublicDir           string   `json:"public_dir"`
		ExternalURL         string   `json:"external_url"`
	} `json:"app,omitempty"`

	Server struct {
		HTTPAddress  string   `json:"http_address"`
		ReadTimeout  Duration `json:"read_timeout"`
		WriteTimeout Duration `json:"write_timeout"`
		IdleTimeout  Duration `json:"idle_timeout"`
	} `json:"server,omitempty"`

	Auth struct {
		Backend  string `json:"backend"`
		Htpasswd struct {
			Path string `json:"path"`
		} `json:"htpasswd,omitempty"`
		LDAP struct {
			URI               string   `json:"uri"`
			Scope             string   `json:"scope"`
			BaseDN            string   `json:"base_dn"`
			Filter            string   `json:"filter"`
			LoginAttribute    string   `json:"login_attribute"`
			BindDN            string   `json:"bind_dn"`
			BindPassword      string   `json:"bind_password"`
			DatabaseAttribute string   `json:"database_attribute"`
			KeyfileAttribute  string   `json:"keyfile_attribute"`
			Timeout           Duration `json:"timeout"`
		} `json:"ldap,omitempty"`
		OIDC struct {
			Issuer       string   `json:"issuer"`
			ClientID     string   `json:"client_id"`
			ClientSecret string   `json:"client_secret"`
			Scopes       []string `json:"scopes"`
		} `json:"oidc,omitempty"`
	} `json:"auth,omitempty"`

	Vault struct {
		Backend    string `json:"backend"`
		Filesystem struct {
			DBLocation      string `json:"db_location"`
			KeyfileLocation string `json:"keyfile_location"`
		} `json:"filesystem,omitempty"`
		HTTP struct {
			DatabaseURL string   `json:"database_url"`
			KeyfileURL  string   `json:"keyfile_url"`
			Username    string   `json:"username"`
			Password    string   `json:"password"`
			Bearer      string   `json:"bearer"`
			Timeout     Duration `json:"timeout"`
		} `json:"http,omitempty"`
		KeyStore string `json:"key_store"`
		Keyring  string `json:"keyring"`
		Search   struct {
			Fields      []string `json:"fields"`
			ExtraFields *bool    `json:"extra_fields"`
			AllowRegex  bool     `json:"allow_regex"`
		} `json:"search,omitempty"`
	} `json:"vault,omitempty"`

	RateLimit struct {
		LoginPerMinute int `json:"login_per_minute"`
		Burst          int `json:"burst"`
	} `json:"rate_limit,omitempty"`

	Workers struct {
		SweepSchedule string `json:"sweep_schedule"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			LogLevel:            j.App.LogLevel,
			SessionSecret:       j.App.SessionSecret,
			CookieSecure:        j.App.CookieSecure,
			SessionLifetime:     time.Duration(j.App.SessionLifetime),
			VaultSessionTimeout: time.Duration(j.App.VaultSessionTimeout),
			AuthCheckInterval:   time.Duration(j.App.AuthCheckInterval),
			PublicDir:           j.App.PublicDir,
			ExternalURL:         j.App.ExternalURL,
		},
		Server: Server{
			HTTPAddress:  j.Server.HTTPAddress,
			ReadTimeout:  time.Duration(j.Server.ReadTimeout),
			WriteTimeout: time.Duration(j.Server.WriteTimeout),
			IdleTimeout:  time.Duration(j.Server.IdleTimeout),
		},
		Auth: Auth{
			Backend:  j.Auth.Backend,
			Htpasswd: Htpasswd{Path: j.Auth.Htpasswd.Path},
			LDAP: LDAP{
				URI:               j.Auth.LDAP.URI,
				Scope:             j.Auth.LDAP.Scope,
				BaseDN:            j.Auth.LDAP.BaseDN,
				Filter:            j.Auth.LDAP.Filter,
				LoginAttribute:    j.Auth.LDAP.LoginAttribute,
				BindDN:            j.Auth.LDAP.BindDN,
				BindPassword:      j.Auth.LDAP.BindPassword,
				DatabaseAttribute: j.Auth.LDAP.DatabaseAttribute,
				KeyfileAttribute:  j.Auth.LDAP.KeyfileAttribute,
				Timeout:           time.Duration(j.Auth.LDAP.Timeout),
			},
			OIDC: OIDC{
				Issuer:       j.Auth.OIDC.Issuer,
				ClientID:     j.Auth.OIDC.ClientID,
				ClientSecret: j.Auth.OIDC.ClientSecret,
				Scopes:       j.Auth.OIDC.Scopes,
			},
		},
		Vault: Vault{
			Backend: j.Vault.Backend,
			Filesystem: Filesystem{
				DBLocation:      j.Vault.Filesystem.DBLocation,
				KeyfileLocation: j.Vault.Filesystem.KeyfileLocation,
			},
			HTTP: HTTPSource{
				DatabaseURL: j.Vault.HTTP.DatabaseURL,
				KeyfileURL:  j.Vault.HTTP.KeyfileURL,
				Username:    j.Vault.HTTP.Username,
				Password:    j.Vault.HTTP.Password,
				Bearer:      j.Vault.HTTP.Bearer,
				Timeout:     time.Duration(j.Vault.HTTP.Timeout),
			},
			KeyStore: j.Vault.KeyStore,
			Keyring:  j.Vault.Keyring,
			Search: Search{
				Fields:      j.Vault.Search.Fields,
				ExtraFields: j.Vault.Search.ExtraFields,
				AllowRegex:  j.Vault.Search.AllowRegex,
			},
		},
		RateLimit: RateLimit{
			LoginPerMinute: j.RateLimit.LoginPerMinute,
			Burst:          j.RateLimit.Burst,
		},
		Workers: Workers{
			SweepSchedule: j.Workers.SweepSchedule,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
