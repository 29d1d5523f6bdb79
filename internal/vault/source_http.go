// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"context"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/utils"
	"github.com/MKhiriev/go-vault-broker/models"
)

// HTTPSource fetches vaults with GET and stores them with PUT, using basic
// or bearer credentials when configured.
type HTTPSource struct {
	cfg    config.HTTPSource
	client *utils.HTTPClient
}

func NewHTTPSource(cfg config.HTTPSource, client *utils.HTTPClient) *HTTPSource {
	return &HTTPSource{cfg: cfg, client: client}
}

func (s *HTTPSource) Authenticated() bool { return true }

func (s *HTTPSource) ReadVault(ctx context.Context, identity models.Identity) (io.ReadCloser, error) {
	url := pick(identity.VaultLocation, s.cfg.DatabaseURL)
	if url == "" {
		return nil, ErrNoLocation
	}
	return s.get(ctx, url)
}

func (s *HTTPSource) ReadKeyfile(ctx context.Context, identity models.Identity) (io.ReadCloser, error) {
	url := pick(identity.KeyfileLocation, s.cfg.KeyfileURL)
	if url == "" {
		return nil, ErrNoKeyfile
	}
	return s.get(ctx, url)
}

// WriteVault streams the written bytes into a PUT request. Close waits for
// the response.
func (s *HTTPSource) WriteVault(ctx context.Context, identity models.Identity) (io.WriteCloser, error) {
	url := pick(identity.VaultLocation, s.cfg.DatabaseURL)
	if url == "" {
		return nil, ErrNoLocation
	}

	pr, pw := io.Pipe()
	w := &pipeUpload{PipeWriter: pw, done: make(chan error, 1)}

	go func() {
		resp, err := s.request(ctx).SetBody(pr).Put(url)
		switch {
		case err != nil:
			err = fmt.Errorf("error uploading vault: %w", err)
		case resp.IsError():
			err = fmt.Errorf("%w: PUT %s: %s", ErrSourceStatus, url, resp.Status())
		}
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

type pipeUpload struct {
	*io.PipeWriter
	done chan error
}

func (w *pipeUpload) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return err
	}
	return <-w.done
}

func (s *HTTPSource) get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := s.request(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}
	if resp.IsError() {
		_ = resp.RawBody().Close()
		return nil, fmt.Errorf("%w: GET %s: %s", ErrSourceStatus, url, resp.Status())
	}
	return resp.RawBody(), nil
}

func (s *HTTPSource) request(ctx context.Context) *resty.Request {
	req := s.client.R().SetContext(ctx)
	if s.cfg.Username != "" || s.cfg.Password != "" {
		req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	}
	if s.cfg.Bearer != "" {
		req.SetAuthToken(s.cfg.Bearer)
	}
	return req
}
