package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/duel-system/middleware"
	"github.com/Dosada05/duel-system/services"
	"github.com/go-chi/chi/v5"
)

type DuelHandler struct {
	duelService services.DuelService
}

func NewDuelHandler(duelService services.DuelService) *DuelHandler {
	return &DuelHandler{
		duelService: duelService,
	}
}

func (h *DuelHandler) CreateDuelHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	tier, err := middleware.GetUserTierFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify subscription tier")
		return
	}

	result, err := h.duelService.CreateDuel(r.Context(), userID, tier)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"duel_id":      result.DuelID,
		"invite_token": result.InviteToken,
		"created_at":   result.CreatedAt,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuelHandler) AcceptDuelHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		badRequestResponse(w, r, errors.New("missing invite token in URL path"))
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to accept a duel")
		return
	}

	duel, err := h.duelService.AcceptDuel(r.Context(), token, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"duel_id": duel.ID,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuelHandler) ListUserDuelsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	duels, err := h.duelService.GetUserDuels(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"duels": duels,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuelHandler) GetDuelHandler(w http.ResponseWriter, r *http.Request) {
	duelID := chi.URLParam(r, "duelID")
	if duelID == "" {
		badRequestResponse(w, r, errors.New("missing duel id in URL path"))
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	duel, err := h.duelService.GetDuel(r.Context(), duelID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"duel": duel,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitScoreHandler receives score reports from the external metrics feed.
// The route is guarded by the score feed secret, not a user token.
func (h *DuelHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	duelID := chi.URLParam(r, "duelID")
	if duelID == "" {
		badRequestResponse(w, r, errors.New("missing duel id in URL path"))
		return
	}

	var input struct {
		UserID int   `json:"user_id"`
		Score  int64 `json:"score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	if err := h.duelService.SubmitScore(r.Context(), duelID, input.UserID, input.Score); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
