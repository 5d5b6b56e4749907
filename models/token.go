// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set of an access token.
// "sub" carries the user ID, "jti" a unique token ID used for revocation.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the role of the user at the moment the token was issued.
	Role Role `json:"role"`
}

// Token wraps a JWT token with convenience accessors for authentication flows.
//
// SignedString holds the compact serialized form of the token
// (header.payload.signature) ready to be put into a cookie or header.
type Token struct {
	// Token is the underlying JWT token used for signing and claim inspection.
	*jwt.Token `json:"-"`

	// Claims is the decoded claim set.
	Claims Claims `json:"-"`

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`
}

// Principal returns the caller identity carried by the token.
func (t Token) Principal() Principal {
	return Principal{
		UserID:  t.Claims.Subject,
		Role:    t.Claims.Role,
		TokenID: t.Claims.ID,
	}
}

// ExpiresAt returns the expiration time of the token, or the zero time when
// the token carries no "exp" claim.
func (t Token) ExpiresAt() time.Time {
	if t.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.Claims.ExpiresAt.Time
}

// Validate is called by the jwt parser after the registered claims were
// checked. It requires subject, token ID and a known role.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("empty subject")
	}
	if c.ID == "" {
		return errors.New("empty token id")
	}
	if !c.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}

// String returns the compact JWS serialization of the token.
func (t Token) String() string {
	return t.SignedString
}
