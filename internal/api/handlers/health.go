package handlers

import (
	"net/http"
)

// HealthHandler provides a minimal liveness check endpoint.
type HealthHandler struct {
	Service string
	Version string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := map[string]string{
		"status":  "healthy",
		"service": h.Service,
		"version": h.Version,
	}
	writeJSON(w, r, http.StatusOK, res)
}
