// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-vault-broker/models"
)

func TestContextKeyString(t *testing.T) {
	assert.Equal(t, "testKey", contextKey("testKey").String())
	assert.Equal(t, "identity", IdentityCtxKey.String())
}

func TestGetIdentityFromContext(t *testing.T) {
	alice := models.NewIdentity("Alice", "Alice Liddell")

	tests := []struct {
		name   string
		ctx    context.Context
		want   models.Identity
		wantOK bool
	}{
		{name: "present", ctx: WithIdentity(context.Background(), alice), want: alice, wantOK: true},
		{name: "missing", ctx: context.Background()},
		{name: "zero identity", ctx: WithIdentity(context.Background(), models.Identity{})},
		{name: "wrong type", ctx: context.WithValue(context.Background(), IdentityCtxKey, "alice")},
		{name: "different key", ctx: context.WithValue(context.Background(), contextKey("other"), alice)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetIdentityFromContext(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
