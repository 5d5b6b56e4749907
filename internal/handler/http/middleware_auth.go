// Package http implements the HTTP transport layer of the application.
// It provides middleware, route handlers, and request/response utilities
// for the REST API. Authentication, logging, tracing, rate limiting and
// metrics are all handled at this layer before requests are forwarded to the
// service layer.
package http

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

type sessionCtxKey struct{}

// session is the authenticated caller of a request.
type session struct {
	user  models.User
	token models.Token
}

func (s session) principal() models.Principal {
	return models.Principal{
		UserID:  s.user.ID,
		Role:    s.user.Role,
		TokenID: s.token.Claims.ID,
	}
}

func withSession(ctx context.Context, s session) context.Context {
	ctx = context.WithValue(ctx, sessionCtxKey{}, s)
	return utils.WithPrincipal(ctx, s.principal())
}

func sessionFromContext(ctx context.Context) (session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(session)
	return s, ok
}

// principalFromRequest returns the authenticated caller or the zero
// principal for anonymous requests.
func principalFromRequest(r *http.Request) models.Principal {
	p, _ := utils.GetPrincipalFromContext(r.Context())
	return p
}

// auth is an HTTP middleware that enforces JWT-based authentication.
//
// The token is taken from the configured cookie or from an
// "Authorization: Bearer" header. It is checked by
// [service.AuthService.Authenticate], which also rejects revoked tokens and
// blocked or deleted users. On success the user, the token and the principal
// are stored in the request context.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.authenticate(r)
		if err != nil {
			writeError(w, r, err, "authentication failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
	})
}

// optionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through. An invalid token is ignored.
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrMissingToken) {
				logger.FromRequest(r).Debug().Err(err).Msg("ignoring invalid token")
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
	})
}

func (h *Handler) authenticate(r *http.Request) (session, error) {
	rawToken, err := h.tokenFromRequest(r)
	if err != nil {
		return session{}, err
	}

	user, token, err := h.services.AuthService.Authenticate(r.Context(), rawToken)
	if err != nil {
		return session{}, err
	}

	return session{user: user, token: token}, nil
}

// tokenFromRequest prefers the cookie over the "Authorization" header.
func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if h.app.CookieName != "" {
		if cookie, err := r.Cookie(h.app.CookieName); err == nil {
			if cookie.Value == "" {
				return "", ErrEmptyToken
			}
			return cookie.Value, nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	return getTokenFromAuthHeader(authHeader)
}

// getTokenFromAuthHeader extracts the bearer token string from a raw
// "Authorization" HTTP header value of the form "Bearer <token>".
func getTokenFromAuthHeader(authHeader string) (string, error) {
	token, err := utils.ParseBearerToken(authHeader)
	if err != nil {
		return "", ErrInvalidAuthorizationHeader
	}
	return token, nil
}

// requireRole rejects callers whose role is not one of roles with 403. It
// must run after auth.
func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := utils.GetPrincipalFromContext(r.Context())
			if !ok {
				writeError(w, r, ErrNotAuthenticated, "missing principal")
				return
			}
			if !slices.Contains(roles, p.Role) {
				writeError(w, r, service.ErrForbidden, "role check failed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
