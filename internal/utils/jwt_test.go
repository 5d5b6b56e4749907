// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/golang-jwt/jwt/v5"
)

func testPrincipal() models.Principal {
	return models.Principal{UserID: "0190a1b2-0000-7000-8000-000000000001", Role: models.RoleGuide, TokenID: "jti-1"}
}

func TestGenerateJWTToken_Success(t *testing.T) {
	issuer := "test-issuer"
	p := testPrincipal()

	token, err := GenerateJWTToken(issuer, p, time.Hour, "secret-key")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token.SignedString == "" {
		t.Error("expected non-empty SignedString")
	}
	if token.Token == nil {
		t.Error("expected non-nil jwt.Token object")
	}
	if token.Claims.Issuer != issuer {
		t.Errorf("expected issuer %s, got %s", issuer, token.Claims.Issuer)
	}
	if token.Claims.Subject != p.UserID {
		t.Errorf("expected subject %s, got %s", p.UserID, token.Claims.Subject)
	}
	if token.Claims.ID != "jti-1" {
		t.Errorf("expected jti 'jti-1', got %s", token.Claims.ID)
	}
	if token.Claims.Role != models.RoleGuide {
		t.Errorf("expected role guide, got %s", token.Claims.Role)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		issuer    string
		principal models.Principal
		duration  time.Duration
		key       string
	}{
		{"empty issuer", "", testPrincipal(), time.Hour, "key"},
		{"zero duration", "iss", testPrincipal(), 0, "key"},
		{"empty key", "iss", testPrincipal(), time.Hour, ""},
		{"empty user", "iss", models.Principal{TokenID: "j", Role: models.RoleAdmin}, time.Hour, "key"},
		{"empty token id", "iss", models.Principal{UserID: "u", Role: models.RoleAdmin}, time.Hour, "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, tt.principal, tt.duration, tt.key)
			if err == nil {
				t.Error("expected error for invalid parameters, got nil")
			}
		})
	}
}

func TestValidateAndParseJWTToken_Success(t *testing.T) {
	issuer := "test-issuer"
	key := "secret-key"
	p := testPrincipal()

	genToken, _ := GenerateJWTToken(issuer, p, 5*time.Minute, key)

	parsedToken, err := ValidateAndParseJWTToken(genToken.SignedString, key, issuer)

	if err != nil {
		t.Fatalf("expected token to be valid, got error: %v", err)
	}
	if parsedToken.Principal() != p {
		t.Errorf("expected principal %+v, got %+v", p, parsedToken.Principal())
	}
	if parsedToken.ExpiresAt().IsZero() {
		t.Error("expected expiration time to be set")
	}
}

func TestValidateAndParseJWTToken_InvalidKey(t *testing.T) {
	genToken, _ := GenerateJWTToken("test-issuer", testPrincipal(), time.Hour, "correct-key")

	_, err := ValidateAndParseJWTToken(genToken.SignedString, "wrong-key", "test-issuer")
	if err == nil {
		t.Error("expected error due to signature mismatch, got nil")
	}
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	genToken, _ := GenerateJWTToken("test-issuer", testPrincipal(), -time.Second, "key")

	_, err := ValidateAndParseJWTToken(genToken.SignedString, "key", "test-issuer")
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	genToken, _ := GenerateJWTToken("real-issuer", testPrincipal(), time.Hour, "key")

	_, err := ValidateAndParseJWTToken(genToken.SignedString, "key", "fake-issuer")
	if err == nil {
		t.Error("expected error for issuer mismatch, got nil")
	}
}

func TestValidateAndParseJWTToken_UnknownRole(t *testing.T) {
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "iss",
			Subject:   "u",
			ID:        "j",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "superuser",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err = ValidateAndParseJWTToken(signed, "key", "iss"); err == nil {
		t.Error("expected error for unknown role, got nil")
	}
}

func TestValidateAndParseJWTToken_Malformed(t *testing.T) {
	_, err := ValidateAndParseJWTToken("not.a.token", "key", "iss")
	if err == nil {
		t.Error("expected error for malformed token string, got nil")
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer   abc", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %q, got %q (err %v)", tt.want, got, err)
			}
		})
	}
}
