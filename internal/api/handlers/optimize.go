package handlers

import (
	"context"
	"errors"
	"net/http"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
)

// RouteOptimizer is the pipeline behind POST /api/optimize.
type RouteOptimizer interface {
	Optimize(ctx context.Context, req domain.DeliveryRequest) (*domain.RouteResponse, error)
}

type OptimizeHandler struct {
	Optimizer RouteOptimizer
}

func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimizeRequest
	if err := decodeBody(r, &req); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			err = ve
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	in, err := req.ToDomain(userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.Optimizer.Optimize(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromResponse(resp))
}

// fail maps pipeline errors: client mistakes are echoed, everything else is generic.
func (h *OptimizeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		var re *domain.ResolutionError
		if errors.As(err, &re) {
			writeError(w, r, http.StatusBadRequest, "Failed to geocode address: "+re.Address)
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var se *domain.SolverError
	if errors.As(err, &se) {
		writeError(w, r, http.StatusInternalServerError, "failed to find optimal route")
		return
	}

	obs.Logger(r.Context()).Error("optimize failed", "err", err)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
