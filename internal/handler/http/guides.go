// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/url"

	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) searchGuides(w http.ResponseWriter, r *http.Request) {
	filter, err := guideFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "invalid guide search")
		return
	}
	if err = h.validator.Validate(r.Context(), filter); err != nil {
		writeError(w, r, err, "invalid guide search")
		return
	}

	page, err := h.services.GuideService.SearchGuides(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "guide search failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}

func guideFilterFromQuery(q url.Values) (models.GuideFilter, error) {
	filter := models.GuideFilter{
		Query:    q.Get("q"),
		City:     q.Get("city"),
		Language: q.Get("language"),
		Sort:     models.GuideSort(q.Get("sort")),
	}

	var err error
	if filter.MinRate, err = queryDecimal(q, "min_rate"); err != nil {
		return filter, err
	}
	if filter.MaxRate, err = queryDecimal(q, "max_rate"); err != nil {
		return filter, err
	}
	if filter.Verified, err = queryBool(q, "verified"); err != nil {
		return filter, err
	}
	if filter.Pagination, err = queryPagination(q); err != nil {
		return filter, err
	}

	return filter, nil
}

func (h *Handler) getGuide(w http.ResponseWriter, r *http.Request) {
	guide, err := h.services.GuideService.GetGuide(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "guide lookup failed")
		return
	}

	_, _ = utils.WriteJSON(w, guide, http.StatusOK)
}

func (h *Handler) guideTours(w http.ResponseWriter, r *http.Request) {
	pagination, err := queryPagination(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "invalid pagination")
		return
	}

	page, err := h.services.TourService.GuideTours(r.Context(), principalFromRequest(r), chi.URLParam(r, "id"), pagination)
	if err != nil {
		writeError(w, r, err, "guide tours lookup failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}

func (h *Handler) guideReviews(w http.ResponseWriter, r *http.Request) {
	h.listReviews(w, r, models.ReviewFilter{GuideID: chi.URLParam(r, "id")})
}

func (h *Handler) updateGuideProfile(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var upd models.GuideProfileUpdate
	if err = h.decodeBody(w, r, &upd); err != nil {
		writeError(w, r, err, "invalid guide profile update")
		return
	}

	guide, err := h.services.GuideService.UpdateProfile(r.Context(), p.UserID, upd)
	if err != nil {
		writeError(w, r, err, "guide profile update failed")
		return
	}

	_, _ = utils.WriteJSON(w, guide, http.StatusOK)
}

func (h *Handler) guideStats(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	stats, err := h.services.GuideService.Stats(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err, "guide stats failed")
		return
	}

	_, _ = utils.WriteJSON(w, stats, http.StatusOK)
}
