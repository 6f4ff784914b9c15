package handlers

import (
	"net/http"

	"github.com/Dosada05/duel-system/services"
)

// SweepHandler exposes the sweep as an externally triggered endpoint so a
// cron-style scheduler outside the process can drive the same code path as
// the in-process scheduler. Overlapping invocations are safe.
type SweepHandler struct {
	sweeper *services.Sweeper
}

func NewSweepHandler(sweeper *services.Sweeper) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
	}
}

func (h *SweepHandler) TriggerSweepHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"expired":   result.Expired,
		"completed": result.Completed,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
