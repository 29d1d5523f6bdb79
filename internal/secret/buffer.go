// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

import (
	"fmt"
	"io"
	"runtime"
)

const redacted = "[REDACTED]"

// Buffer owns a byte slice holding sensitive data (passwords, keys,
// decrypted vault bytes) and overwrites it on Wipe.
//
// A Buffer never prints its content: every fmt verb renders "[REDACTED]".
type Buffer struct {
	b []byte
}

// NewBuffer takes ownership of b. The caller must not keep using b after
// the Buffer is wiped.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// CopyBuffer returns a Buffer holding a private copy of b.
func CopyBuffer(b []byte) *Buffer {
	c := make([]byte, len(b))
	copy(c, b)
	return &Buffer{b: c}
}

// Bytes exposes the underlying slice. Nil-safe.
func (s *Buffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *Buffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe zeroes the content and drops the reference. Safe to call repeatedly.
func (s *Buffer) Wipe() {
	if s == nil {
		return
	}
	Zero(s.b)
	s.b = nil
}

func (s *Buffer) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (s *Buffer) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
