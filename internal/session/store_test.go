package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bookly-de/customer_portal/internal/logging"
)

type brokenBackend struct {
	MemoryBackend
}

func (b *brokenBackend) Save(context.Context, string) error {
	return errors.New("disk full")
}

func TestOpenLoadsPersistedToken(t *testing.T) {
	store, err := Open(context.Background(), NewMemoryBackend("abc"), logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Get() != "abc" {
		t.Fatalf("expected persisted token, got %q", store.Get())
	}
}

func TestSetAndClearNotifyOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend("")
	store, err := Open(ctx, backend, logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var seen []string
	unsubscribe := store.Subscribe(func(token string) { seen = append(seen, token) })

	if err := store.Set(ctx, "t1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "t1"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear again: %v", err)
	}

	if len(seen) != 2 || seen[0] != "t1" || seen[1] != "" {
		t.Fatalf("unexpected notifications: %q", seen)
	}
	if persisted, _ := backend.Load(ctx); persisted != "" {
		t.Fatalf("expected backend cleared, got %q", persisted)
	}

	unsubscribe()
	if err := store.Set(ctx, "t2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("unsubscribed observer still called: %q", seen)
	}
}

func TestSetFailureLeavesTokenUntouched(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, &brokenBackend{}, logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, "abc"); err == nil {
		t.Fatal("expected save error")
	}
	if store.Get() != "" {
		t.Fatalf("token should not change on failed save, got %q", store.Get())
	}
}

func TestClearIfOnlyClearsMatchingToken(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NewMemoryBackend("new"), logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	cleared, err := store.ClearIf(ctx, "old")
	if err != nil || cleared {
		t.Fatalf("stale clear should be ignored, cleared=%v err=%v", cleared, err)
	}
	if store.Get() != "new" {
		t.Fatalf("expected token kept, got %q", store.Get())
	}

	cleared, err = store.ClearIf(ctx, "new")
	if err != nil || !cleared {
		t.Fatalf("expected clear, cleared=%v err=%v", cleared, err)
	}
	if store.Get() != "" {
		t.Fatalf("expected empty token, got %q", store.Get())
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	backend := NewFileBackend(path, "customer_token")

	if token, err := backend.Load(ctx); err != nil || token != "" {
		t.Fatalf("expected empty load, got %q err=%v", token, err)
	}
	if err := backend.Save(ctx, "abc"); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reopened := NewFileBackend(path, "customer_token")
	if token, err := reopened.Load(ctx); err != nil || token != "abc" {
		t.Fatalf("expected abc after reopen, got %q err=%v", token, err)
	}

	if err := reopened.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestFileBackendKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"lang":"de"}`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend := NewFileBackend(path, "customer_token")
	if err := backend.Save(ctx, "abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(data); got == "" || !strings.Contains(got, `"lang"`) || strings.Contains(got, "abc") {
		t.Fatalf("unexpected file contents: %s", got)
	}
}

func TestFileBackendRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := Open(context.Background(), NewFileBackend(path, "customer_token"), logging.Discard()); err == nil {
		t.Fatal("expected corrupt session file to fail open")
	}
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	backend := NewRedisBackend(client, "customer_token")
	store, err := Open(ctx, backend, logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Get() != "" {
		t.Fatalf("expected empty store, got %q", store.Get())
	}

	if err := store.Set(ctx, "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("session:customer_token")
	if err != nil || got != "abc" {
		t.Fatalf("expected token in redis, got %q err=%v", got, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("session:customer_token") {
		t.Fatal("expected key deleted")
	}
}
