// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/MKhiriev/go-vault-broker/internal/workers"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	httpServer *httpServer
	workers    *workers.Workers
	logger     *logger.Logger

	// serve is httpServer.RunServer, replaced in tests
	serve func() error
}

// NewServer wires the HTTP handler and the workers. workers may be nil.
func NewServer(handler http.Handler, w *workers.Workers, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if cfg.HTTPAddress == "" || handler == nil {
		return nil, errNoServersAreCreated
	}

	s := &server{
		httpServer: newHTTPServer(handler, cfg, logger),
		workers:    w,
		logger:     logger,
	}
	s.serve = s.httpServer.RunServer
	return s, nil
}

func (s *server) RunServer() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	return s.run(ctx)
}

func (s *server) Shutdown(ctx context.Context) error {
	// stop taking requests first, then the jobs
	err := s.httpServer.Shutdown(ctx)
	if s.workers != nil {
		err = errors.Join(err, s.workers.Stop(ctx))
	}
	return err
}

func (s *server) run(ctx context.Context) error {
	if s.workers != nil {
		s.workers.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("stop signal received")
	case runErr = <-errCh:
		s.logger.Err(runErr).Msg("HTTP server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Err(err).Msg("shutdown incomplete")
		return errors.Join(runErr, err)
	}

	s.logger.Info().Msg("server Shutdown gracefully")
	return runErr
}
