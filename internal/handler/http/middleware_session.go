// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"sync"

	"github.com/MKhiriev/go-vault-broker/internal/session"
)

// withSession loads the cookie session into the request context and writes
// it back, if it changed, right before the response header goes out. When
// the cookie cannot be written the handler's response is replaced by a 500.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.sessions.Load(r)

		sw := &sessionWriter{
			ResponseWriter: w,
			commit: func() error {
				return sess.Save(r, w)
			},
			fail: func(err error) {
				h.writeError(w, r, err)
			},
		}

		next.ServeHTTP(sw, r.WithContext(session.WithSession(r.Context(), sess)))

		// handler wrote nothing at all
		sw.flushSession()
	})
}

// sessionWriter runs commit exactly once, before the first header write.
// After a failed commit everything the handler writes is discarded.
type sessionWriter struct {
	http.ResponseWriter

	once   sync.Once
	commit func() error
	fail   func(error)
	failed bool
}

func (w *sessionWriter) flushSession() {
	w.once.Do(func() {
		if err := w.commit(); err != nil {
			w.failed = true
			w.fail(err)
		}
	})
}

func (w *sessionWriter) WriteHeader(statusCode int) {
	w.flushSession()
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flushSession()
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// sessionFromRequest returns the session withSession attached.
func sessionFromRequest(r *http.Request) (session.Session, error) {
	return session.FromContext(r.Context())
}
