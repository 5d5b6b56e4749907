package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.ReviewRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid review request")
		return
	}

	review, err := h.services.ReviewService.CreateReview(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, "review creation failed")
		return
	}

	_, _ = utils.WriteJSON(w, review, http.StatusCreated)
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	if err := h.services.ReviewService.DeleteReview(r.Context(), reviewID); err != nil {
		writeError(w, r, err, "review deletion failed")
		return
	}

	logger.FromRequest(r).Info().Str("review_id", reviewID).Msg("review deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request, filter models.ReviewFilter) {
	pagination, err := queryPagination(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "invalid pagination")
		return
	}
	filter.Pagination = pagination

	page, err := h.services.ReviewService.ListReviews(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "review listing failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}
