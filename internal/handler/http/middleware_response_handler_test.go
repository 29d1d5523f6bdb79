// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeader_TableTest(t *testing.T) {
	tests := []struct {
		name           string
		statusCodes    []int
		expectedStatus int
	}{
		{name: "200 OK", statusCodes: []int{http.StatusOK}, expectedStatus: http.StatusOK},
		{name: "401", statusCodes: []int{http.StatusUnauthorized}, expectedStatus: http.StatusUnauthorized},
		{name: "second call ignored", statusCodes: []int{http.StatusCreated, http.StatusInternalServerError}, expectedStatus: http.StatusCreated},
		{name: "third call ignored", statusCodes: []int{http.StatusForbidden, http.StatusOK, http.StatusTeapot}, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			w := &responseWriter{ResponseWriter: rr}

			for _, code := range tt.statusCodes {
				w.WriteHeader(code)
			}

			assert.True(t, w.wroteHeader)
			assert.Equal(t, tt.expectedStatus, w.status)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestResponseWriter_Write(t *testing.T) {
	tests := []struct {
		name         string
		header       int
		writes       []string
		expectedSize int
		expectedCode int
	}{
		{name: "implicit 200", writes: []string{"hello"}, expectedSize: 5, expectedCode: http.StatusOK},
		{name: "accumulates size", writes: []string{"ab", "cde", ""}, expectedSize: 5, expectedCode: http.StatusOK},
		{name: "explicit header kept", header: http.StatusNotFound, writes: []string{"missing"}, expectedSize: 7, expectedCode: http.StatusNotFound},
		{name: "header only", header: http.StatusNoContent, expectedCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			w := &responseWriter{ResponseWriter: rr}

			if tt.header != 0 {
				w.WriteHeader(tt.header)
			}
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				require.NoError(t, err)
				require.Equal(t, len(s), n)
			}

			assert.Equal(t, tt.expectedSize, w.size)
			assert.Equal(t, tt.expectedCode, w.status)
			assert.Equal(t, tt.expectedCode, rr.Code)
		})
	}
}

func TestResponseWriter_ProxiesHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rr}

	w.Header().Set("X-Trace-ID", "abc")
	w.WriteHeader(http.StatusOK)

	assert.Equal(t, "abc", rr.Header().Get("X-Trace-ID"))
	assert.Same(t, rr, w.Unwrap())
}
