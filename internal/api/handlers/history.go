package handlers

import (
	"net/http"
	"time"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

const (
	// recentWindow is the span of the dashboard's recent-routes series.
	recentWindow = 7 * 24 * time.Hour
	historyLimit = 50
)

// HistoryHandler exposes a user's past optimizations.
type HistoryHandler struct {
	Store ports.HistoryStore
	Now   func() time.Time
}

func (h *HistoryHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !allowMethod(w, r, http.MethodGet) {
		return "", false
	}
	if h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "history is disabled")
		return "", false
	}
	id := userID(r)
	if id == "" {
		writeError(w, r, http.StatusUnauthorized, "missing "+UserIDHeader)
		return "", false
	}
	return id, true
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.user(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.List(r.Context(), id, historyLimit)
	if err != nil {
		obs.Logger(r.Context()).Error("list history failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromHistory(entries))
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.user(w, r)
	if !ok {
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	st, err := h.Store.Stats(r.Context(), id, now().Add(-recentWindow))
	if err != nil {
		obs.Logger(r.Context()).Error("history stats failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromStats(st))
}
