package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/duel-system/middleware"
	"github.com/Dosada05/duel-system/models"
	"github.com/Dosada05/duel-system/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
)

const testJWTSecret = "unit-test-secret"

// stubDuelService returns scripted results so the tests pin down the HTTP
// status mapping, not the lifecycle logic.
type stubDuelService struct {
	createResult *services.CreateDuelResult
	createErr    error
	acceptDuel   *models.Duel
	acceptErr    error
	submitErr    error
}

func (s *stubDuelService) CreateDuel(context.Context, int, models.SubscriptionTier) (*services.CreateDuelResult, error) {
	return s.createResult, s.createErr
}

func (s *stubDuelService) AcceptDuel(context.Context, string, int) (*models.Duel, error) {
	return s.acceptDuel, s.acceptErr
}

func (s *stubDuelService) ExpirePendingDuels(context.Context) (int64, error) { return 0, nil }

func (s *stubDuelService) CompleteEndedDuels(context.Context) (int64, error) { return 0, nil }

func (s *stubDuelService) GetUserDuels(context.Context, int) ([]*models.Duel, error) {
	return []*models.Duel{}, nil
}

func (s *stubDuelService) GetDuel(context.Context, string, int) (*models.Duel, error) {
	return nil, services.ErrDuelNotFound
}

func (s *stubDuelService) SubmitScore(context.Context, string, int, int64) error {
	return s.submitErr
}

func signTestToken(t *testing.T, userID int, tier string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"tier":    tier,
		"name":    "tester",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func newDuelTestRouter(stub *stubDuelService) *chi.Mux {
	handler := NewDuelHandler(stub)
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(testJWTSecret)))
		r.Post("/duels", handler.CreateDuelHandler)
		r.Post("/duels/accept/{token}", handler.AcceptDuelHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret("X-Score-Feed-Secret", "feed-secret"))
		r.Post("/duels/{duelID}/score", handler.SubmitScoreHandler)
	})
	return router
}

func TestCreateDuelHandler(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubDuelService
		tier       string
		wantStatus int
	}{
		{
			name: "created",
			stub: &stubDuelService{createResult: &services.CreateDuelResult{
				DuelID:      "d-1",
				InviteToken: "tok",
				CreatedAt:   time.Now(),
			}},
			tier:       "free",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "tier limit",
			stub:       &stubDuelService{createErr: services.ErrTierLimitExceeded},
			tier:       "free",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid tier claim",
			stub:       &stubDuelService{createErr: services.ErrInvalidTier},
			tier:       "free",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newDuelTestRouter(tt.stub)

			req := httptest.NewRequest(http.MethodPost, "/duels", nil)
			req.Header.Set("Authorization", "Bearer "+signTestToken(t, 1, tt.tier))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				var body map[string]interface{}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if body["invite_token"] != "tok" {
					t.Errorf("invite_token = %v, want tok", body["invite_token"])
				}
			}
		})
	}
}

func TestCreateDuelHandler_RequiresAuth(t *testing.T) {
	router := newDuelTestRouter(&stubDuelService{})

	req := httptest.NewRequest(http.MethodPost, "/duels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAcceptDuelHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubDuelService
		wantStatus int
	}{
		{name: "accepted", stub: &stubDuelService{acceptDuel: &models.Duel{ID: "d-1"}}, wantStatus: http.StatusOK},
		{name: "unknown token", stub: &stubDuelService{acceptErr: services.ErrInvalidToken}, wantStatus: http.StatusNotFound},
		{name: "self challenge", stub: &stubDuelService{acceptErr: services.ErrSelfChallengeNotAllowed}, wantStatus: http.StatusForbidden},
		{name: "already accepted", stub: &stubDuelService{acceptErr: services.ErrAlreadyAccepted}, wantStatus: http.StatusConflict},
		{name: "expired", stub: &stubDuelService{acceptErr: services.ErrDuelExpired}, wantStatus: http.StatusGone},
		{name: "internal failure", stub: &stubDuelService{acceptErr: errors.New("boom")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newDuelTestRouter(tt.stub)

			req := httptest.NewRequest(http.MethodPost, "/duels/accept/some-token", nil)
			req.Header.Set("Authorization", "Bearer "+signTestToken(t, 2, "free"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestSubmitScoreHandler(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		body       string
		submitErr  error
		wantStatus int
	}{
		{name: "accepted", secret: "feed-secret", body: `{"user_id": 1, "score": 42}`, wantStatus: http.StatusNoContent},
		{name: "missing secret", body: `{"user_id": 1, "score": 42}`, wantStatus: http.StatusForbidden},
		{name: "wrong secret", secret: "nope", body: `{"user_id": 1, "score": 42}`, wantStatus: http.StatusForbidden},
		{name: "malformed body", secret: "feed-secret", body: `{"user_id`, wantStatus: http.StatusBadRequest},
		{name: "missing user", secret: "feed-secret", body: `{"score": 42}`, wantStatus: http.StatusBadRequest},
		{name: "inactive duel", secret: "feed-secret", body: `{"user_id": 1, "score": 42}`, submitErr: services.ErrDuelNotActive, wantStatus: http.StatusBadRequest},
		{name: "non-participant", secret: "feed-secret", body: `{"user_id": 9, "score": 42}`, submitErr: services.ErrForbiddenOperation, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newDuelTestRouter(&stubDuelService{submitErr: tt.submitErr})

			req := httptest.NewRequest(http.MethodPost, "/duels/d-1/score", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.secret != "" {
				req.Header.Set("X-Score-Feed-Secret", tt.secret)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
