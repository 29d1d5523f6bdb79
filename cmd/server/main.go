// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/cache"
	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/handler/http"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/server"
	"github.com/MKhiriev/go-vault-broker/internal/service"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/internal/workers"
	"github.com/MKhiriev/go-vault-broker/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const (
	authInitTimeout   = 30 * time.Second
	authClientTimeout = 15 * time.Second
)

func main() {
	// wipes enclaves and locked buffers on every exit path below
	defer memguard.Purge()

	printBuildInfo()

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		bootLog := logger.NewLogger("vault-broker", "")
		bootLog.Error().Err(err).Msg("error getting configs")
		return
	}

	log := logger.NewLogger("vault-broker", cfg.App.LogLevel)
	log.Debug().
		Str("auth_backend", cfg.Auth.Backend).
		Str("vault_backend", cfg.Vault.Backend).
		Str("key_store", cfg.Vault.KeyStore).
		Str("address", cfg.Server.HTTPAddress).
		Msg("received configs")

	if err = run(cfg, log); err != nil {
		log.Error().Err(err).Msg("vault broker stopped with error")
		return
	}
	log.Info().Msg("vault broker stopped")
}

func run(cfg *config.StructuredConfig, log *logger.Logger) error {
	backend, err := auth.New(cfg.Auth, utils.NewHTTPClient(authClientTimeout).StandardClient())
	if err != nil {
		return fmt.Errorf("error creating auth backend: %w", err)
	}
	if err = backend.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid %s auth configuration: %w", cfg.Auth.Backend, err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), authInitTimeout)
	authCache, err := backend.Init(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("error initializing %s auth backend: %w", cfg.Auth.Backend, err)
	}

	keys, err := secret.NewKeyStore(context.Background(), cfg.Vault.KeyStore, cfg.Vault.Keyring, log)
	if err != nil {
		return fmt.Errorf("error creating key store: %w", err)
	}

	source, err := vault.NewSource(cfg.Vault)
	if err != nil {
		return fmt.Errorf("error creating vault source: %w", err)
	}

	blobs := cache.New()

	services, err := service.NewServices(service.Dependencies{
		Backend:   backend,
		AuthCache: authCache,
		Source:    source,
		Keys:      keys,
		Blobs:     blobs,
		BuildInfo: models.NewAppBuildInfo(buildVersion, buildDate, buildCommit),
	}, *cfg, log)
	if err != nil {
		return fmt.Errorf("error creating services: %w", err)
	}

	sessions, generated, err := session.NewCookieStore(session.Config{
		Secret:   cfg.App.SessionSecret,
		Secure:   cfg.App.CookieSecure,
		Lifetime: cfg.App.SessionLifetime,
	})
	if err != nil {
		return fmt.Errorf("error creating session store: %w", err)
	}
	if generated {
		log.Warn().Msg("no session secret configured, generated a random one; sessions will not survive a restart")
	}

	handler := http.NewHandler(services, sessions, *cfg, log)

	sweepers := map[string]workers.Sweeper{
		"vault_cache":   workers.SweepFunc(blobs.Purge),
		"login_limiter": handler.LoginLimiter(),
	}
	if sweeper, ok := keys.(workers.Sweeper); ok {
		sweepers["key_store"] = sweeper
	}

	jobs, err := workers.NewWorkers(cfg.Workers, sweepers, log)
	if err != nil {
		return fmt.Errorf("error creating workers: %w", err)
	}

	srv, err := server.NewServer(handler.Init(), jobs, cfg.Server, log)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	return srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
