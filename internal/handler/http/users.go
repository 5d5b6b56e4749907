package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	user, err := h.services.UserService.GetUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err, "profile lookup failed")
		return
	}

	_, _ = utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var upd models.UserUpdate
	if err = h.decodeBody(w, r, &upd); err != nil {
		writeError(w, r, err, "invalid profile update")
		return
	}

	user, err := h.services.UserService.UpdateProfile(r.Context(), p.UserID, upd)
	if err != nil {
		writeError(w, r, err, "profile update failed")
		return
	}

	_, _ = utils.WriteJSON(w, user, http.StatusOK)
}
