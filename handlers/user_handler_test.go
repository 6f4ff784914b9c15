package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/duel-system/middleware"
	"github.com/Dosada05/duel-system/models"
	"github.com/Dosada05/duel-system/services"
	"github.com/go-chi/chi/v5"
)

type stubUserService struct {
	setTierErr    error
	setTierUserID int
	setTierValue  models.SubscriptionTier
}

func (s *stubUserService) GetUserByID(context.Context, int) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (s *stubUserService) UploadAvatar(context.Context, int, string, io.Reader) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (s *stubUserService) SetTier(_ context.Context, userID int, tier models.SubscriptionTier) error {
	s.setTierUserID = userID
	s.setTierValue = tier
	return s.setTierErr
}

func newUserTestRouter(stub *stubUserService) *chi.Mux {
	handler := NewUserHandler(stub)
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret("X-Billing-Secret", "billing-secret"))
		r.Put("/internal/users/{userID}/tier", handler.SetTierHandler)
	})
	return router
}

func TestSetTierHandler(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		path       string
		body       string
		setTierErr error
		wantStatus int
	}{
		{name: "upgraded", secret: "billing-secret", path: "/internal/users/7/tier", body: `{"tier": "pro"}`, wantStatus: http.StatusNoContent},
		{name: "missing secret", path: "/internal/users/7/tier", body: `{"tier": "pro"}`, wantStatus: http.StatusForbidden},
		{name: "wrong secret", secret: "nope", path: "/internal/users/7/tier", body: `{"tier": "pro"}`, wantStatus: http.StatusForbidden},
		{name: "bad user id", secret: "billing-secret", path: "/internal/users/abc/tier", body: `{"tier": "pro"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", secret: "billing-secret", path: "/internal/users/7/tier", body: `{"tier`, wantStatus: http.StatusBadRequest},
		{name: "unknown tier", secret: "billing-secret", path: "/internal/users/7/tier", body: `{"tier": "platinum"}`, setTierErr: services.ErrInvalidTier, wantStatus: http.StatusBadRequest},
		{name: "unknown user", secret: "billing-secret", path: "/internal/users/7/tier", body: `{"tier": "pro"}`, setTierErr: services.ErrUserNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubUserService{setTierErr: tt.setTierErr}
			router := newUserTestRouter(stub)

			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.secret != "" {
				req.Header.Set("X-Billing-Secret", tt.secret)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent {
				if stub.setTierUserID != 7 || stub.setTierValue != models.TierPro {
					t.Errorf("SetTier called with (%d, %q), want (7, %q)", stub.setTierUserID, stub.setTierValue, models.TierPro)
				}
			}
		})
	}
}

func TestSetTierHandler_NoSecretConfigured(t *testing.T) {
	handler := NewUserHandler(&stubUserService{})
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret("X-Billing-Secret", ""))
		r.Put("/internal/users/{userID}/tier", handler.SetTierHandler)
	})

	req := httptest.NewRequest(http.MethodPut, "/internal/users/7/tier", strings.NewReader(`{"tier": "pro"}`))
	req.Header.Set("X-Billing-Secret", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d when no billing secret is configured", rec.Code, http.StatusForbidden)
	}
}
