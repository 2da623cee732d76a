package accounts

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookly-de/customer_portal/internal/validation"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), WithBcryptCost(bcrypt.MinCost))
}

func register(t *testing.T, svc *Service, email, phone string) Account {
	t.Helper()
	account, err := svc.Register(context.Background(), NewAccount{Name: "User", Email: email, Password: "secret1", PhoneE164: phone})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return account
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	account := register(t, svc, "User@Example.com", "+491571234567")

	if !account.PhoneVerified || account.ID == "" {
		t.Fatalf("unexpected account %+v", account)
	}
	got, err := svc.Authenticate(context.Background(), "user@example.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("expected %s got %s", account.ID, got.ID)
	}
	if _, err := svc.Authenticate(context.Background(), "user@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	svc := newTestService()
	register(t, svc, "user@example.com", "+491571234567")
	ctx := context.Background()

	_, err := svc.Register(ctx, NewAccount{Name: "B", Email: "USER@example.com", Password: "secret1", PhoneE164: "+491700000000"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	_, err = svc.Register(ctx, NewAccount{Name: "B", Email: "b@example.com", Password: "secret1", PhoneE164: "+491571234567"})
	if !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	_, err = svc.Register(ctx, NewAccount{Name: "B", Email: "b@example.com", Password: "123", PhoneE164: "+491700000000"})
	if !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.Precheck(ctx, "user@example.com", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("precheck email: %v", err)
	}
	if err := svc.Precheck(ctx, "free@example.com", "+491571234567"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("precheck phone: %v", err)
	}
	if err := svc.Precheck(ctx, "free@example.com", "+491700000000"); err != nil {
		t.Fatalf("precheck free: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestService()
	account := register(t, svc, "user@example.com", "+491571234567")
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, account.ID, "wrong", "secret2"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "secret1", "secret2"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "user@example.com", "secret2"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc := newTestService()
	account := register(t, svc, "user@example.com", "+491571234567")
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, "+491571234567", "newpass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := svc.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TokenVersion != account.TokenVersion+1 {
		t.Fatalf("expected token version bump, got %d", got.TokenVersion)
	}
	if err := svc.ResetPassword(ctx, "+491700000000", "newpass"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown phone, got %v", err)
	}
}

func TestChangePhoneKeepsIndexesConsistent(t *testing.T) {
	svc := newTestService()
	a := register(t, svc, "a@example.com", "+491571111111")
	register(t, svc, "b@example.com", "+491572222222")
	ctx := context.Background()

	if _, err := svc.ChangePhone(ctx, a.ID, "+491572222222"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	if _, err := svc.ChangePhone(ctx, a.ID, "+491573333333"); err != nil {
		t.Fatalf("change phone: %v", err)
	}
	if err := svc.Precheck(ctx, "", "+491571111111"); err != nil {
		t.Fatalf("old phone should be free again: %v", err)
	}
	if err := svc.Precheck(ctx, "", "+491573333333"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("new phone should be taken: %v", err)
	}
}
