package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/fixit/internal/model"
)

func newSessionRepo(t *testing.T, now time.Time) *RedisSessionRepo {
	t.Helper()

	store, _ := newTestStore(t)
	repo := NewRedisSessionRepo(store)
	repo.now = func() time.Time { return now }
	return repo
}

func TestRedisSessionRepo_CreateAndFind(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepo(t, now)
	ctx := context.Background()

	session := &model.Session{
		Token:     "abc123",
		Username:  "admin",
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.FindByToken(ctx, "abc123")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got == nil {
		t.Fatal("session not found")
	}
	if got.Username != "admin" {
		t.Errorf("Username = %q, want admin", got.Username)
	}
	if !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, session.ExpiresAt)
	}
}

func TestRedisSessionRepo_FindByToken_Absent(t *testing.T) {
	repo := newSessionRepo(t, time.Now())

	got, err := repo.FindByToken(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestRedisSessionRepo_FindByToken_Expired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepo(t, now)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Session{
		Token:     "old",
		Username:  "admin",
		ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 有効期限ちょうどの時刻でも期限切れ扱い
	repo.now = func() time.Time { return now.Add(time.Hour) }
	got, err := repo.FindByToken(ctx, "old")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got != nil {
		t.Error("expired session should be treated as absent")
	}
}

func TestRedisSessionRepo_Create_PrunesExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepo(t, now)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Session{
		Token:     "stale",
		Username:  "tanaka",
		ExpiresAt: now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 新規セッション追加の書き込みで期限切れ分が刈り取られる
	later := now.Add(2 * time.Minute)
	repo.now = func() time.Time { return later }
	if err := repo.Create(ctx, &model.Session{
		Token:     "fresh",
		Username:  "admin",
		ExpiresAt: later.Add(24 * time.Hour),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pruned, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("pruned = %d, want 0 (stale session already removed on Create)", pruned)
	}

	got, err := repo.FindByToken(ctx, "fresh")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got == nil {
		t.Error("fresh session should survive pruning")
	}
}

func TestRedisSessionRepo_DeleteExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepo(t, now)
	ctx := context.Background()

	sessions := []*model.Session{
		{Token: "live", Username: "admin", ExpiresAt: now.Add(24 * time.Hour)},
		{Token: "dead1", Username: "tanaka", ExpiresAt: now.Add(time.Minute)},
		{Token: "dead2", Username: "suzuki", ExpiresAt: now.Add(2 * time.Minute)},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	repo.now = func() time.Time { return now.Add(time.Hour) }
	pruned, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned)
	}

	got, err := repo.FindByToken(ctx, "live")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got == nil {
		t.Error("live session should survive")
	}
}

func TestRedisSessionRepo_DeleteExpired_EmptyCollection(t *testing.T) {
	repo := newSessionRepo(t, time.Now())

	pruned, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("pruned = %d, want 0", pruned)
	}
}
