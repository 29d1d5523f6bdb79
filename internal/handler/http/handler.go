// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/service"
	"github.com/MKhiriev/go-vault-broker/internal/session"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	services *service.Services
	sessions *session.CookieStore

	search      config.Search
	publicDir   string
	externalURL string

	loginLimiter *IPRateLimiter
	traceIDs     *utils.UUIDGenerator
	validate     *validator.Validate
	now          func() time.Time

	logger *logger.Logger
}

func NewHandler(services *service.Services, sessions *session.CookieStore, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:     services,
		sessions:     sessions,
		search:       cfg.Vault.Search,
		publicDir:    cfg.App.PublicDir,
		externalURL:  cfg.App.ExternalURL,
		loginLimiter: NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.Burst),
		traceIDs:     utils.NewUUIDGenerator(),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		now:          time.Now,
		logger:       logger,
	}
}

// LoginLimiter exposes the per-IP login limiter so the workers can prune
// idle clients.
func (h *Handler) LoginLimiter() *IPRateLimiter {
	return h.loginLimiter
}
