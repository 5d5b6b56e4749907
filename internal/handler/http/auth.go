package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid register request")
		return
	}

	user, token, err := h.services.AuthService.Register(ctx, req)
	if err != nil {
		writeError(w, r, err, "user registration failed")
		return
	}

	log.Info().Str("user_id", user.ID).Str("user_role", string(user.Role)).Msg("user registered")

	h.setToken(w, token)
	_, _ = utils.WriteJSON(w, models.AuthResponse{User: user, Token: token.SignedString}, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.LoginRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid login request")
		return
	}

	user, token, err := h.services.AuthService.Login(ctx, req)
	if err != nil {
		writeError(w, r, err, "user login failed")
		return
	}

	log.Debug().Str("user_id", user.ID).Msg("user successfully logged in")

	h.setToken(w, token)
	_, _ = utils.WriteJSON(w, models.AuthResponse{User: user, Token: token.SignedString}, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, r, ErrNotAuthenticated, "logout without session")
		return
	}

	if err := h.services.AuthService.Logout(r.Context(), s.token); err != nil {
		writeError(w, r, err, "logout failed")
		return
	}

	h.clearToken(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, r, ErrNotAuthenticated, "me without session")
		return
	}

	_, _ = utils.WriteJSON(w, s.user, http.StatusOK)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.ChangePasswordRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid change password request")
		return
	}

	if err = h.services.AuthService.ChangePassword(r.Context(), p.UserID, req); err != nil {
		writeError(w, r, err, "password change failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setupOTP(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	setup, err := h.services.AuthService.SetupOTP(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err, "otp setup failed")
		return
	}

	_, _ = utils.WriteJSON(w, setup, http.StatusOK)
}

func (h *Handler) enableOTP(w http.ResponseWriter, r *http.Request) {
	h.toggleOTP(w, r, true)
}

func (h *Handler) disableOTP(w http.ResponseWriter, r *http.Request) {
	h.toggleOTP(w, r, false)
}

func (h *Handler) toggleOTP(w http.ResponseWriter, r *http.Request, enable bool) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.OTPRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid otp request")
		return
	}

	if enable {
		err = h.services.AuthService.EnableOTP(r.Context(), p.UserID, req.Code)
	} else {
		err = h.services.AuthService.DisableOTP(r.Context(), p.UserID, req.Code)
	}
	if err != nil {
		writeError(w, r, err, "otp update failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setToken hands the token out both as an HttpOnly cookie and in the
// "Authorization" header.
func (h *Handler) setToken(w http.ResponseWriter, token models.Token) {
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token.SignedString))

	if h.app.CookieName == "" {
		return
	}

	maxAge := int(time.Until(token.ExpiresAt()).Seconds())
	if maxAge <= 0 {
		maxAge = int(h.app.TokenDuration.Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.app.CookieName,
		Value:    token.SignedString,
		Path:     "/",
		Domain:   h.app.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.app.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearToken(w http.ResponseWriter) {
	if h.app.CookieName == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.app.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.app.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.app.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
