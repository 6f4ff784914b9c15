package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/duel-system/models"
)

func TestUserService_SetTier(t *testing.T) {
	repo := newFakeUserRepo(testUser(1, models.TierFree))
	svc := NewUserService(repo, nil)
	ctx := context.Background()

	if err := svc.SetTier(ctx, 1, models.TierPro); err != nil {
		t.Fatalf("SetTier() unexpected error: %v", err)
	}
	stored, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if stored.Tier != models.TierPro {
		t.Errorf("stored tier = %q, want %q", stored.Tier, models.TierPro)
	}

	if err := svc.SetTier(ctx, 1, "platinum"); !errors.Is(err, ErrInvalidTier) {
		t.Errorf("unknown tier SetTier() error = %v, want %v", err, ErrInvalidTier)
	}
	if err := svc.SetTier(ctx, 99, models.TierPro); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user SetTier() error = %v, want %v", err, ErrUserNotFound)
	}
}
