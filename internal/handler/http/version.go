package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/utils"
)

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(serverVersion))
}

// health answers 503 while the primary storage does not respond.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.services.AppInfoService.Health(r.Context()); err != nil {
		_, _ = utils.WriteJSON(w, statusResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	_, _ = utils.WriteJSON(w, statusResponse{Status: "ok"}, http.StatusOK)
}
