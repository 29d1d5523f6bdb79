// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-vault-broker/internal/auth"
	"github.com/MKhiriev/go-vault-broker/internal/cache"
	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/secret"
	"github.com/MKhiriev/go-vault-broker/internal/vault"
	"github.com/MKhiriev/go-vault-broker/models"
)

type Services struct {
	AuthService    AuthService
	VaultService   VaultService
	AppInfoService AppInfoService
}

// Dependencies are the collaborators built in main before the services.
type Dependencies struct {
	Backend   auth.Backend
	AuthCache auth.Cache
	Source    vault.Source
	Keys      secret.KeyStore
	Blobs     *cache.Cache
	BuildInfo models.AppBuildInfo
}

func NewServices(deps Dependencies, cfg config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	appInfoService, err := NewAppInfoService(deps.BuildInfo, logger)
	if err != nil {
		return nil, err
	}

	vaultService := NewVaultService(deps.Source, deps.Keys, deps.Blobs, cfg.App.VaultSessionTimeout, logger)

	return &Services{
		AuthService:    NewAuthService(deps.Backend, deps.AuthCache, vaultService, cfg.App.VaultSessionTimeout, cfg.App.AuthCheckInterval, logger),
		VaultService:   vaultService,
		AppInfoService: appInfoService,
	}, nil
}
