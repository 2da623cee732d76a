package reservations

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestListAndCancel(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := svc.SeedDemo(ctx, "alice", now); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{CustomerID: "bob", Service: "Color", Date: now}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(list))
	}
	if !list[0].Date.Before(list[1].Date) {
		t.Fatal("expected earliest first")
	}
	if v := list[0].View(); v.Employee == nil || v.Employee.Name != "Anna" {
		t.Fatalf("unexpected view %+v", v)
	}

	bobs, _ := svc.List(ctx, "bob")
	if err := svc.Cancel(ctx, "alice", bobs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancelling someone else's booking must fail, got %v", err)
	}
	if err := svc.Cancel(ctx, "alice", list[0].ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if list, _ = svc.List(ctx, "alice"); len(list) != 1 {
		t.Fatalf("expected 1 reservation left, got %d", len(list))
	}
}
