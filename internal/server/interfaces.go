// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "context"

// Server is the lifecycle of the broker process.
type Server interface {
	// RunServer serves until a stop signal arrives or the listener fails,
	// then shuts everything down.
	RunServer() error

	// Shutdown stops accepting requests, waits for in-flight ones and stops
	// the workers, bounded by ctx.
	Shutdown(ctx context.Context) error
}
