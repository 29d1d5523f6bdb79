// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the configuration flags found in args.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-c/-config json file path with configs
//	-l log level
//	-auth-backend identity backend (none, test, htpasswd, ldap, oidc)
//	-vault-backend vault source (filesystem, http, test)
//	-key-store secret key store (auto, keyring, memory)
//	-public-dir directory with index.html and assets
//	-vault-timeout vault session timeout (e.g., "10m")
func ParseFlags(args []string) (*StructuredConfig, error) {
	var serverAddress NetAddress
	var jsonConfigPath string
	var logLevel string
	var authBackend string
	var vaultBackend string
	var keyStore string
	var publicDir string
	var vaultTimeout time.Duration

	fs := flag.NewFlagSet("vault-broker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&logLevel, "l", "", "Log level")
	fs.StringVar(&authBackend, "auth-backend", "", "Auth backend")
	fs.StringVar(&vaultBackend, "vault-backend", "", "Vault backend")
	fs.StringVar(&keyStore, "key-store", "", "Secret key store")
	fs.StringVar(&publicDir, "public-dir", "", "Static files directory")
	fs.DurationVar(&vaultTimeout, "vault-timeout", 0, "Vault session timeout (e.g., 10m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			LogLevel:            logLevel,
			PublicDir:           publicDir,
			VaultSessionTimeout: vaultTimeout,
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		Auth: Auth{
			Backend: authBackend,
		},
		Vault: Vault{
			Backend:  vaultBackend,
			KeyStore: keyStore,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be between 1 and 65535")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
