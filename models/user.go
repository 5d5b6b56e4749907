// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strings"
	"time"
)

// Role is the platform role of an account. It decides which parts of the API
// the account may use.
type Role string

const (
	// RoleTraveler books tours.
	RoleTraveler Role = "traveler"

	// RoleGuide authors tours and serves bookings.
	RoleGuide Role = "guide"

	// RoleAdmin moderates the platform.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTraveler, RoleGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an account entity used for authentication and authorization.
// Credential fields are persisted but never exposed via JSON.
type User struct {
	// ID is the UUIDv7 identifier assigned by the service layer.
	ID string `json:"id" bson:"_id"`

	// Name is the display name of the user.
	Name string `json:"name" bson:"name"`

	// Email is the unique, lower-cased login of the user.
	Email string `json:"email" bson:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-" bson:"password_hash"`

	// Role decides the permissions of the account.
	Role Role `json:"role" bson:"role"`

	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`

	// Active is false for accounts blocked by an administrator.
	Active bool `json:"active" bson:"active"`

	// TOTPSecret is the shared secret of the authenticator app. It is stored
	// as soon as the setup starts and only used once TOTPEnabled is true.
	TOTPSecret  string `json:"-" bson:"totp_secret,omitempty"`
	TOTPEnabled bool   `json:"totp_enabled" bson:"totp_enabled"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// Principal returns the authenticated identity derived from the user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role}
}

// NormalizeEmail lower-cases and trims an email address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Principal is the authenticated caller of a request, as extracted from the
// access token.
type Principal struct {
	UserID  string `json:"user_id"`
	Role    Role   `json:"role"`
	TokenID string `json:"-"`
}

// IsAdmin reports whether the caller is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserUpdate is a partial update of a user's own profile.
// Only non-nil fields are applied.
type UserUpdate struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=512"`
}

// IsEmpty reports whether the update carries no fields.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.AvatarURL == nil
}

// UserChanges is a column-targeted write to an account. Nil fields keep
// their stored value. The If* fields are preconditions: the write only
// happens while the stored row still matches them.
type UserChanges struct {
	Name         *string
	Phone        *string
	AvatarURL    *string
	PasswordHash *string
	TOTPSecret   *string
	TOTPEnabled  *bool
	Active       *bool

	IfPasswordHash *string
	IfTOTPSecret   *string
	IfTOTPEnabled  *bool

	UpdatedAt time.Time
}

// Guarded reports whether the changes carry a precondition.
func (c UserChanges) Guarded() bool {
	return c.IfPasswordHash != nil || c.IfTOTPSecret != nil || c.IfTOTPEnabled != nil
}

// UserFilter narrows the administrator's user listing.
type UserFilter struct {
	Role   Role
	Query  string
	Active *bool
	Pagination
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72,bcryptmax"`
	Role     Role   `json:"role" validate:"omitempty,oneof=traveler guide"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTPCode  string `json:"otp_code" validate:"omitempty,numeric,len=6"`
}

// ChangePasswordRequest is the body of PUT /api/auth/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72,bcryptmax,nefield=OldPassword"`
}

// OTPRequest carries a one-time code from the authenticator app.
type OTPRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// OTPSetup is returned when a user starts enrolling an authenticator app.
type OTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// UserStatusRequest is the body of PATCH /api/admin/users/{id}/status.
type UserStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AuthResponse is returned by register and login. The token is duplicated in
// the cookie and the Authorization header.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
