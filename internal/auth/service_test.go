package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Hour, time.Minute, nil)

	token, err := svc.IssueSession("acc-1", 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.ParseSession(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Version != 3 {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other := NewService("other-secret", time.Hour, time.Minute, nil)
	if _, err := other.ParseSession(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
	if _, err := svc.ParseSession("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	svc := NewService("secret", -time.Minute, time.Minute, nil)
	token, err := svc.IssueSession("acc-1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ParseSession(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestOTPTokenIsSingleUseAndScoped(t *testing.T) {
	svc := NewService("secret", time.Hour, time.Minute, nil)
	ctx := context.Background()

	token, err := svc.IssueOTP("+491571234567", "registration")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ParseSession(token); err == nil {
		t.Fatal("otpToken must not work as a session token")
	}
	if err := svc.ConsumeOTP(ctx, token, "+491571234567", "password_reset"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected purpose mismatch, got %v", err)
	}
	if err := svc.ConsumeOTP(ctx, token, "+491700000000", "registration"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected phone mismatch, got %v", err)
	}
	if err := svc.ConsumeOTP(ctx, token, "+491571234567", "registration"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := svc.ConsumeOTP(ctx, token, "+491571234567", "registration"); !errors.Is(err, ErrOTPUsed) {
		t.Fatalf("expected ErrOTPUsed on replay, got %v", err)
	}
}

func TestRedisUsedTokens(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	used := NewRedisUsedTokens(cache)
	ctx := context.Background()

	fresh, err := used.MarkUsed(ctx, "jti-1", time.Minute)
	if err != nil || !fresh {
		t.Fatalf("expected first mark to succeed, fresh=%v err=%v", fresh, err)
	}
	fresh, err = used.MarkUsed(ctx, "jti-1", time.Minute)
	if err != nil || fresh {
		t.Fatalf("expected replay to be detected, fresh=%v err=%v", fresh, err)
	}

	mr.FastForward(2 * time.Minute)
	fresh, err = used.MarkUsed(ctx, "jti-1", time.Minute)
	if err != nil || !fresh {
		t.Fatalf("expected key to expire, fresh=%v err=%v", fresh, err)
	}
}
