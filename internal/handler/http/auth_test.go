// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ─────────────────────────────────────────────
// register
// ─────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	h, m := newTestHandler(t)

	req := models.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass"}
	m.auth.EXPECT().Register(gomock.Any(), req).Return(travelerUser, testToken("signed.jwt.token", "jti-1"), nil)

	rec := serve(h, nil, http.MethodPost, "/api/auth/register", jsonBody(t, req))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Bearer signed.jwt.token", rec.Header().Get("Authorization"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Equal(t, "signed.jwt.token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, travelerUser.ID, resp.User.ID)
	assert.Equal(t, "signed.jwt.token", resp.Token)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_RejectedBeforeService(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: "{invalid json}"},
		{name: "empty body", body: ""},
		{name: "unknown field", body: `{"name":"Asha","email":"asha@example.com","password":"s3cret-pass","admin":true}`},
		{name: "short password", body: `{"name":"Asha","email":"asha@example.com","password":"short"}`},
		{name: "admin role", body: `{"name":"Asha","email":"asha@example.com","password":"s3cret-pass","role":"admin"}`},
		{name: "password over 72 bytes", body: `{"name":"Asha","email":"asha@example.com","password":"` + strings.Repeat("é", 40) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)

			rec := serve(h, nil, http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	h, m := newTestHandler(t)

	m.auth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(models.User{}, models.Token{}, store.ErrEmailAlreadyExists)

	rec := serve(h, nil, http.MethodPost, "/api/auth/register",
		jsonBody(t, models.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, store.ErrEmailAlreadyExists.Error(), decodeError(t, rec))
}

// ─────────────────────────────────────────────
// login
// ─────────────────────────────────────────────

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "wrong credentials", err: service.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "otp required", err: service.ErrOTPRequired, wantStatus: http.StatusUnauthorized},
		{name: "blocked", err: service.ErrUserBlocked, wantStatus: http.StatusForbidden},
		{name: "storage failure", err: store.ErrExecutingQuery, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)

			m.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.User{}, models.Token{}, tt.err)

			rec := serve(h, nil, http.MethodPost, "/api/auth/login",
				jsonBody(t, models.LoginRequest{Email: "asha@example.com", Password: "whatever"}))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, rec.Header().Get("Authorization"))
		})
	}
}

func TestLogin_Success(t *testing.T) {
	h, m := newTestHandler(t)

	m.auth.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass", OTPCode: "123456"}).
		Return(travelerUser, testToken("signed", "jti-1"), nil)

	rec := serve(h, nil, http.MethodPost, "/api/auth/login",
		jsonBody(t, models.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass", OTPCode: "123456"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer signed", rec.Header().Get("Authorization"))
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1
	h, _ := newTestHandlerWithConfig(t, cfg)
	router := h.Init()

	first := serveWith(router, http.MethodPost, "/api/auth/login", "{")
	second := serveWith(router, http.MethodPost, "/api/auth/login", "{")

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

// ─────────────────────────────────────────────
// session endpoints
// ─────────────────────────────────────────────

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	m.auth.EXPECT().Logout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, token models.Token) error {
			assert.Equal(t, "jti-"+travelerUser.ID, token.Claims.ID)
			return nil
		})

	rec := serve(h, &travelerUser, http.MethodPost, "/api/auth/logout", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestMe(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(guideUser)

	rec := serve(h, &guideUser, http.MethodGet, "/api/auth/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, guideUser.ID, got.ID)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	req := models.ChangePasswordRequest{OldPassword: "old-pass-1", NewPassword: "new-pass-1"}
	m.auth.EXPECT().ChangePassword(gomock.Any(), travelerUser.ID, req).Return(service.ErrWrongPassword)

	rec := serve(h, &travelerUser, http.MethodPut, "/api/auth/password", jsonBody(t, req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOTPFlow(t *testing.T) {
	h, m := newTestHandler(t)

	m.expectAuth(travelerUser)
	m.auth.EXPECT().SetupOTP(gomock.Any(), travelerUser.ID).Return(models.OTPSetup{Secret: "ABC", URL: "otpauth://totp/x"}, nil)
	rec := serve(h, &travelerUser, http.MethodPost, "/api/auth/otp/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "otpauth://")

	m.expectAuth(travelerUser)
	m.auth.EXPECT().EnableOTP(gomock.Any(), travelerUser.ID, "123456").Return(nil)
	rec = serve(h, &travelerUser, http.MethodPost, "/api/auth/otp/enable", jsonBody(t, models.OTPRequest{Code: "123456"}))
	require.Equal(t, http.StatusNoContent, rec.Code)

	m.expectAuth(travelerUser)
	m.auth.EXPECT().DisableOTP(gomock.Any(), travelerUser.ID, "654321").Return(service.ErrInvalidOTP)
	rec = serve(h, &travelerUser, http.MethodPost, "/api/auth/otp/disable", jsonBody(t, models.OTPRequest{Code: "654321"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOTPEnable_MalformedCode(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	rec := serve(h, &travelerUser, http.MethodPost, "/api/auth/otp/enable", jsonBody(t, models.OTPRequest{Code: "12ab"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
