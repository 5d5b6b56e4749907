// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.services.AdminService.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err, "dashboard failed")
		return
	}

	_, _ = utils.WriteJSON(w, stats, http.StatusOK)
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	rng, err := revenueRangeFromQuery(r.URL.Query(), time.Now())
	if err != nil {
		writeError(w, r, err, "invalid revenue range")
		return
	}
	if !rng.From.IsZero() {
		if err = h.validator.Validate(r.Context(), rng); err != nil {
			writeError(w, r, err, "invalid revenue range")
			return
		}
	}

	months, err := h.services.AdminService.Revenue(r.Context(), rng)
	if err != nil {
		writeError(w, r, err, "revenue report failed")
		return
	}

	_, _ = utils.WriteJSON(w, months, http.StatusOK)
}

// revenueRangeFromQuery returns the zero range when neither bound is given,
// letting the service pick its default window. A single bound is completed
// to a window of the default length.
func revenueRangeFromQuery(q url.Values, now time.Time) (models.RevenueRange, error) {
	from, err := queryMonth(q, "from")
	if err != nil {
		return models.RevenueRange{}, err
	}
	to, err := queryMonth(q, "to")
	if err != nil {
		return models.RevenueRange{}, err
	}

	switch {
	case from.IsZero() && to.IsZero():
		return models.RevenueRange{}, nil
	case from.IsZero():
		from = to.AddDate(0, -(service.DefaultRevenueMonths - 1), 0)
	case to.IsZero():
		to = now
		if from.After(to) {
			to = from
		}
	}

	return models.MonthRange(from, to), nil
}

func (h *Handler) topGuides(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit")
	if err != nil {
		writeError(w, r, err, "invalid limit")
		return
	}

	guides, err := h.services.AdminService.TopGuides(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, "top guides report failed")
		return
	}

	_, _ = utils.WriteJSON(w, guides, http.StatusOK)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.UserFilter{
		Role:  models.Role(q.Get("role")),
		Query: q.Get("q"),
	}

	var err error
	if filter.Active, err = queryBool(q, "active"); err != nil {
		writeError(w, r, err, "invalid user filter")
		return
	}
	if filter.Pagination, err = queryPagination(q); err != nil {
		writeError(w, r, err, "invalid user filter")
		return
	}
	if err = h.validator.Validate(r.Context(), filter); err != nil {
		writeError(w, r, err, "invalid user filter")
		return
	}

	page, err := h.services.UserService.ListUsers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "user listing failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.UserStatusRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid user status request")
		return
	}

	user, err := h.services.UserService.SetActive(r.Context(), p, chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		writeError(w, r, err, "user status update failed")
		return
	}

	logger.FromRequest(r).Info().
		Str("user_id", user.ID).
		Bool("active", user.Active).
		Str("admin_id", p.UserID).
		Msg("user status changed")

	_, _ = utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) verifyGuide(w http.ResponseWriter, r *http.Request) {
	var req models.GuideVerifyRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid guide verification")
		return
	}

	guide, err := h.services.GuideService.SetVerified(r.Context(), chi.URLParam(r, "id"), *req.Verified)
	if err != nil {
		writeError(w, r, err, "guide verification failed")
		return
	}

	_, _ = utils.WriteJSON(w, guide, http.StatusOK)
}
