// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of the image itself.
const multipartOverhead = 64 << 10

func (h *Handler) searchTours(w http.ResponseWriter, r *http.Request) {
	filter, err := tourFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "invalid tour search")
		return
	}
	if err = h.validator.Validate(r.Context(), filter); err != nil {
		writeError(w, r, err, "invalid tour search")
		return
	}

	page, err := h.services.TourService.SearchTours(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "tour search failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}

func tourFilterFromQuery(q url.Values) (models.TourFilter, error) {
	filter := models.TourFilter{
		Query:   q.Get("q"),
		City:    q.Get("city"),
		GuideID: q.Get("guide_id"),
		Tag:     q.Get("tag"),
		Sort:    models.TourSort(q.Get("sort")),
	}

	var err error
	if filter.MinPrice, err = queryDecimal(q, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryDecimal(q, "max_price"); err != nil {
		return filter, err
	}
	if filter.MaxDuration, err = queryFloat(q, "max_duration"); err != nil {
		return filter, err
	}
	if filter.Pagination, err = queryPagination(q); err != nil {
		return filter, err
	}

	return filter, nil
}

func (h *Handler) getTour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.services.TourService.GetTour(r.Context(), principalFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "tour lookup failed")
		return
	}

	_, _ = utils.WriteJSON(w, tour, http.StatusOK)
}

func (h *Handler) createTour(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.TourRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid tour request")
		return
	}

	tour, err := h.services.TourService.CreateTour(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err, "tour creation failed")
		return
	}

	logger.FromRequest(r).Info().Str("tour_id", tour.ID).Msg("tour created")
	_, _ = utils.WriteJSON(w, tour, http.StatusCreated)
}

func (h *Handler) updateTour(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var upd models.TourUpdate
	if err = h.decodeBody(w, r, &upd); err != nil {
		writeError(w, r, err, "invalid tour update")
		return
	}

	tour, err := h.services.TourService.UpdateTour(r.Context(), p, chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err, "tour update failed")
		return
	}

	_, _ = utils.WriteJSON(w, tour, http.StatusOK)
}

// deactivateTour serves both the guide route and the admin route. The
// service decides whether the caller may deactivate the tour.
func (h *Handler) deactivateTour(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	tour, err := h.services.TourService.DeactivateTour(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "tour deactivation failed")
		return
	}

	_, _ = utils.WriteJSON(w, tour, http.StatusOK)
}

// uploadTourImage streams the "image" part of a multipart body to the tour
// service without buffering it on disk.
func (h *Handler) uploadTourImage(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, ErrMissingImage, "not a multipart request")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, r, ErrMissingImage, "image part is missing")
			return
		}
		if err != nil {
			writeError(w, r, uploadError(err), "reading multipart body failed")
			return
		}
		if part.FormName() != "image" {
			_ = part.Close()
			continue
		}

		tour, err := h.services.TourService.AddImage(r.Context(), p, chi.URLParam(r, "id"), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			writeError(w, r, uploadError(err), "image upload failed")
			return
		}

		_, _ = utils.WriteJSON(w, tour, http.StatusCreated)
		return
	}
}

// uploadError reports a body over the MaxBytesReader limit as a too large
// image.
func uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return service.ErrImageTooLarge
	}
	return err
}

func (h *Handler) tourReviews(w http.ResponseWriter, r *http.Request) {
	h.listReviews(w, r, models.ReviewFilter{TourID: chi.URLParam(r, "id")})
}
