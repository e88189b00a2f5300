package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/hitoshi/fixit/internal/model"
	"github.com/hitoshi/fixit/internal/password"
)

func newUserRepo(t *testing.T) (*RedisUserRepo, *miniredis.Miniredis) {
	t.Helper()

	store, mr := newTestStore(t)
	repo, err := NewRedisUserRepo(store, "fixit2026", testBcryptCost)
	if err != nil {
		t.Fatalf("NewRedisUserRepo failed: %v", err)
	}
	return repo, mr
}

func TestRedisUserRepo_All_BootstrapsAdmin(t *testing.T) {
	repo, mr := newUserRepo(t)
	ctx := context.Background()

	users, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}

	admin, ok := users["admin"]
	if !ok {
		t.Fatal("admin user should be bootstrapped on first access")
	}
	if admin.Name != "Admin" {
		t.Errorf("Name = %q, want Admin", admin.Name)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", admin.Role)
	}
	if admin.ForcePasswordChange {
		t.Error("bootstrapped admin should not require a password change")
	}
	if !password.Verify(admin.PasswordHash, "fixit2026") {
		t.Error("bootstrapped admin hash should verify against the default password")
	}

	// ブロブには平文ではなくハッシュが格納されること
	blob, err := mr.Get("users")
	if err != nil {
		t.Fatalf("users blob not written: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatalf("users blob is not valid JSON: %v", err)
	}
	if raw["admin"]["password"] == "fixit2026" {
		t.Error("stored password must be hashed, not plain text")
	}
}

func TestRedisUserRepo_All_DoesNotOverwriteExisting(t *testing.T) {
	repo, _ := newUserRepo(t)
	ctx := context.Background()

	if _, err := repo.All(ctx); err != nil {
		t.Fatalf("first All failed: %v", err)
	}
	hash, err := password.Hash("changed", testBcryptCost)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := repo.SetPassword(ctx, "admin", hash, false, time.Now()); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}

	users, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("second All failed: %v", err)
	}
	if !password.Verify(users["admin"].PasswordHash, "changed") {
		t.Error("bootstrap must not reset an existing collection")
	}
}

func TestRedisUserRepo_CreateAndFind(t *testing.T) {
	repo, _ := newUserRepo(t)
	ctx := context.Background()

	hash, err := password.Hash("secret", testBcryptCost)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	user := &model.User{
		Username:            "tanaka",
		PasswordHash:        hash,
		Name:                "田中",
		Role:                model.RoleUser,
		ForcePasswordChange: true,
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.FindByUsername(ctx, "tanaka")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if got == nil {
		t.Fatal("created user not found")
	}
	if got.Name != "田中" || got.Role != model.RoleUser || !got.ForcePasswordChange {
		t.Errorf("got = %+v", got)
	}
}

func TestRedisUserRepo_Create_Duplicate(t *testing.T) {
	repo, _ := newUserRepo(t)
	ctx := context.Background()

	user := &model.User{Username: "tanaka", Role: model.RoleUser}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := repo.Create(ctx, user)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("err = %v, want DUPLICATE_USERNAME", err)
	}
}

func TestRedisUserRepo_Create_AdminReserved(t *testing.T) {
	repo, _ := newUserRepo(t)

	// ブートストラップ前でもadminは重複扱いになる
	err := repo.Create(context.Background(), &model.User{Username: "admin", Role: model.RoleUser})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("err = %v, want DUPLICATE_USERNAME", err)
	}
}

func TestRedisUserRepo_FindByUsername_Absent(t *testing.T) {
	repo, _ := newUserRepo(t)

	got, err := repo.FindByUsername(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestRedisUserRepo_Delete_Idempotent(t *testing.T) {
	repo, _ := newUserRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.User{Username: "tanaka", Role: model.RoleUser}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "tanaka"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// 2回目の削除も成功する
	if err := repo.Delete(ctx, "tanaka"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	got, err := repo.FindByUsername(ctx, "tanaka")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if got != nil {
		t.Error("user should be deleted")
	}
}

func TestRedisUserRepo_SetPassword(t *testing.T) {
	repo, _ := newUserRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.User{Username: "tanaka", Role: model.RoleUser, ForcePasswordChange: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	hash, err := password.Hash("new-secret", testBcryptCost)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	changedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SetPassword(ctx, "tanaka", hash, false, changedAt); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}

	got, err := repo.FindByUsername(ctx, "tanaka")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if got.PasswordHash != hash {
		t.Error("password hash not updated")
	}
	if got.ForcePasswordChange {
		t.Error("force password change flag should be cleared")
	}
	if got.PasswordChangedAt == nil || !got.PasswordChangedAt.Equal(changedAt) {
		t.Errorf("PasswordChangedAt = %v, want %v", got.PasswordChangedAt, changedAt)
	}
}

func TestRedisUserRepo_SetPassword_NotFound(t *testing.T) {
	repo, _ := newUserRepo(t)

	err := repo.SetPassword(context.Background(), "ghost", "hash", false, time.Now())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("err = %v, want USER_NOT_FOUND", err)
	}
}
