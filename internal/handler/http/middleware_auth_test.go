package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ---- Helpers ----

// injectNopLogger puts a nop logger into the request context.
func injectNopLogger(r *http.Request) *http.Request {
	nop := logger.Nop()
	return r.WithContext(nop.Logger.WithContext(r.Context()))
}

func executeMiddleware(mw func(http.Handler) http.Handler, req *http.Request, next http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, injectNopLogger(req))
	return rr
}

// ---- getTokenFromAuthHeader ----

func TestGetTokenFromAuthHeader_TableTest(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   error
	}{
		{name: "valid Bearer token", header: "Bearer my-jwt-token", wantToken: "my-jwt-token"},
		{name: "scheme is case insensitive", header: "bearer my-jwt-token", wantToken: "my-jwt-token"},
		{name: "missing token part", header: "Bearer", wantErr: ErrInvalidAuthorizationHeader},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidAuthorizationHeader},
		{name: "only spaces", header: "   ", wantErr: ErrInvalidAuthorizationHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getTokenFromAuthHeader(tt.header)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, got)
		})
	}
}

// ---- auth ----

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		authErr    error
		wantStatus int
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer abc", authErr: service.ErrTokenIsExpiredOrInvalid, wantStatus: http.StatusUnauthorized},
		{name: "revoked", header: "Bearer abc", authErr: service.ErrTokenRevoked, wantStatus: http.StatusUnauthorized},
		{name: "blocked user", header: "Bearer abc", authErr: service.ErrUserBlocked, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			if tt.authErr != nil {
				m.auth.EXPECT().Authenticate(gomock.Any(), "abc").Return(models.User{}, models.Token{}, tt.authErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			nextCalled := false
			rr := executeMiddleware(h.auth, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				nextCalled = true
			}))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.False(t, nextCalled)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestAuth_CookieTakesPrecedence(t *testing.T) {
	h, m := newTestHandler(t)
	m.auth.EXPECT().Authenticate(gomock.Any(), "cookie-token").Return(guideUser, testToken("cookie-token", "jti-9"), nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	var got models.Principal
	rr := executeMiddleware(h.auth, req, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = utils.GetPrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.Principal{UserID: guideUser.ID, Role: models.RoleGuide, TokenID: "jti-9"}, got)
}

func TestAuth_EmptyCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: ""})

	rr := executeMiddleware(h.auth, req, http.NotFoundHandler())

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// ---- optionalAuth ----

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h, _ := newTestHandler(t)

		var ok bool
		rr := executeMiddleware(h.optionalAuth, httptest.NewRequest(http.MethodGet, "/test", nil),
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok = utils.GetPrincipalFromContext(r.Context())
			}))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, ok)
	})

	t.Run("invalid token is ignored", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.auth.EXPECT().Authenticate(gomock.Any(), "stale").Return(models.User{}, models.Token{}, service.ErrTokenIsExpiredOrInvalid)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer stale")

		nextCalled := false
		rr := executeMiddleware(h.optionalAuth, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			nextCalled = true
		}))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, nextCalled)
	})

	t.Run("valid token", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(adminUser)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer token-"+adminUser.ID)

		var got models.Principal
		executeMiddleware(h.optionalAuth, req, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = principalFromRequest(r)
		}))

		assert.Equal(t, principalOf(adminUser), got)
	})
}

// ---- requireRole ----

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		principal  *models.Principal
		wantStatus int
	}{
		{name: "allowed role", principal: &models.Principal{UserID: "u1", Role: models.RoleAdmin}, wantStatus: http.StatusOK},
		{name: "other role", principal: &models.Principal{UserID: "u1", Role: models.RoleTraveler}, wantStatus: http.StatusForbidden},
		{name: "no principal", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.principal != nil {
				req = req.WithContext(utils.WithPrincipal(req.Context(), *tt.principal))
			}

			rr := executeMiddleware(requireRole(models.RoleAdmin), req, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestAdminRoutes_RejectNonAdmins(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(guideUser)

	rec := serve(h, &guideUser, http.MethodGet, "/api/admin/dashboard", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.ErrForbidden.Error(), decodeError(t, rec))
}
