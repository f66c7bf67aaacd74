package handler

import "net/http"

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Keys:    h.store.Count(),
	})
}
