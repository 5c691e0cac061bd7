package handlers

import (
	"net/http"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/risk"
)

// RiskZoneHandler serves the process-wide risk zones.
type RiskZoneHandler struct {
	Field *risk.Field
}

func (h *RiskZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromZones(h.Field.Zones()))
}

func (h *RiskZoneHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	body, err := dto.ZonesGeoJSON(h.Field.Zones()).MarshalJSON()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
