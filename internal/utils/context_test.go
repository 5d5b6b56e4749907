// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-tour-guide/models"
)

func TestContextKeyString(t *testing.T) {
	key := contextKey("testKey")
	if key.String() != "testKey" {
		t.Errorf("expected 'testKey', got '%s'", key.String())
	}
}

func TestPrincipalCtxKey(t *testing.T) {
	if PrincipalCtxKey.String() != "principal" {
		t.Errorf("expected 'principal', got '%s'", PrincipalCtxKey.String())
	}
}

func TestGetPrincipalFromContext_Success(t *testing.T) {
	want := models.Principal{UserID: "u-1", Role: models.RoleGuide}
	ctx := WithPrincipal(context.Background(), want)

	got, ok := GetPrincipalFromContext(ctx)

	if !ok {
		t.Fatal("expected ok=true, got false")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestGetPrincipalFromContext_Missing(t *testing.T) {
	got, ok := GetPrincipalFromContext(context.Background())

	if ok {
		t.Fatal("expected ok=false, got true")
	}
	if got.UserID != "" {
		t.Errorf("expected empty principal, got %+v", got)
	}
}

func TestGetPrincipalFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), PrincipalCtxKey, "u-1")

	if _, ok := GetPrincipalFromContext(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestGetPrincipalFromContext_EmptyUserID(t *testing.T) {
	ctx := WithPrincipal(context.Background(), models.Principal{Role: models.RoleAdmin})

	if _, ok := GetPrincipalFromContext(ctx); ok {
		t.Fatal("expected ok=false for empty user id")
	}
}
