package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/duel-system/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if user.ID == 0 {
		t.Error("Register() did not assign a user ID")
	}
	if user.Tier != models.TierFree {
		t.Errorf("Register() tier = %q, want new users to start on %q", user.Tier, models.TierFree)
	}
	if user.PasswordHash != "" {
		t.Error("Register() leaked the password hash")
	}

	logged, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("Login() user ID = %d, want %d", logged.ID, user.ID)
	}
	if logged.PasswordHash != "" {
		t.Error("Login() leaked the password hash")
	}
}

func TestAuthService_RegisterRejections(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "bob", Email: "bob@example.com", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("short password Register() error = %v, want %v", err, ErrPasswordTooShort)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "bob", Email: "bob@example.com", Password: "long enough password"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "bobby", Email: "bob@example.com", Password: "long enough password"}); !errors.Is(err, ErrAuthEmailTaken) {
		t.Errorf("duplicate email Register() error = %v, want %v", err, ErrAuthEmailTaken)
	}
}

func TestAuthService_LoginRejections(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever1"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("unknown email Login() error = %v, want %v", err, ErrAuthInvalidCredentials)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "carol", Email: "carol@example.com", Password: "long enough password"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "carol@example.com", Password: "wrong password"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("wrong password Login() error = %v, want %v", err, ErrAuthInvalidCredentials)
	}
}
