package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
	"github.com/hitoshi/fixit/internal/password"
)

// bootstrapAdminUsername は初回起動時に作成される管理者のユーザー名。
// このユーザーは削除できない。
const bootstrapAdminUsername = "admin"

// RedisUserRepo はKVストア上のusersブロブを扱うユーザーリポジトリ。
type RedisUserRepo struct {
	store            kv.Store
	defaultAdminHash string
}

// NewRedisUserRepo はRedisUserRepoを生成する。
// defaultAdminPasswordは初回起動時にブートストラップされる
// adminユーザーのパスワードで、ハッシュ化して保持する。
func NewRedisUserRepo(store kv.Store, defaultAdminPassword string, bcryptCost int) (*RedisUserRepo, error) {
	hash, err := password.Hash(defaultAdminPassword, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default admin password: %w", err)
	}
	return &RedisUserRepo{
		store:            store,
		defaultAdminHash: hash,
	}, nil
}

// bootstrapUsers はデフォルトのadminユーザーのみを含むコレクションを返す。
func (r *RedisUserRepo) bootstrapUsers() map[string]model.User {
	return map[string]model.User{
		bootstrapAdminUsername: {
			Username:            bootstrapAdminUsername,
			PasswordHash:        r.defaultAdminHash,
			Name:                "Admin",
			Role:                model.RoleAdmin,
			ForcePasswordChange: false,
		},
	}
}

// All は全ユーザーを返す。コレクション未作成の場合は
// デフォルトのadminユーザーをブートストラップしてから返す。
func (r *RedisUserRepo) All(ctx context.Context) (map[string]model.User, error) {
	blob, found, err := r.store.Get(ctx, usersKey)
	if err != nil {
		return nil, err
	}
	if found {
		return decodeUsers(blob)
	}

	// 初回アクセス: デフォルトadminを永続化する。
	// 他プロセスが先に書き込んでいた場合はその内容を採用する。
	var users map[string]model.User
	err = r.store.Update(ctx, usersKey, func(current string, found bool) (string, error) {
		if found {
			existing, err := decodeUsers(current)
			if err != nil {
				return "", err
			}
			users = existing
			return current, nil
		}
		users = r.bootstrapUsers()
		return encodeUsers(users)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("users collection bootstrapped",
		slog.String("username", bootstrapAdminUsername),
	)
	return users, nil
}

// FindByUsername は指定ユーザーを取得する。見つからない場合はnilを返す。
func (r *RedisUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	u, ok := users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Create はユーザーを作成する。重複チェックは書き込みトランザクション内で
// 行われるため、同時作成が同じユーザー名で成功することはない。
func (r *RedisUserRepo) Create(ctx context.Context, user *model.User) error {
	return r.store.Update(ctx, usersKey, func(current string, found bool) (string, error) {
		users := r.bootstrapUsers()
		if found {
			var err error
			users, err = decodeUsers(current)
			if err != nil {
				return "", err
			}
		}

		if _, exists := users[user.Username]; exists {
			return "", model.NewDuplicateUsernameError(user.Username)
		}

		users[user.Username] = *user
		return encodeUsers(users)
	})
}

// Delete は指定ユーザーを削除する。マップからの削除なので冪等。
// adminユーザーの保護はサービス層で行う。
func (r *RedisUserRepo) Delete(ctx context.Context, username string) error {
	return r.store.Update(ctx, usersKey, func(current string, found bool) (string, error) {
		if !found {
			return encodeUsers(r.bootstrapUsers())
		}

		users, err := decodeUsers(current)
		if err != nil {
			return "", err
		}
		delete(users, username)
		return encodeUsers(users)
	})
}

// SetPassword は指定ユーザーのパスワードハッシュ、強制変更フラグ、
// 変更日時を同一書き込みで更新する。
func (r *RedisUserRepo) SetPassword(ctx context.Context, username, hash string, forceChange bool, changedAt time.Time) error {
	return r.store.Update(ctx, usersKey, func(current string, found bool) (string, error) {
		users := r.bootstrapUsers()
		if found {
			var err error
			users, err = decodeUsers(current)
			if err != nil {
				return "", err
			}
		}

		u, ok := users[username]
		if !ok {
			return "", model.NewUserNotFoundError(username)
		}

		u.PasswordHash = hash
		u.ForcePasswordChange = forceChange
		u.PasswordChangedAt = &changedAt
		users[username] = u
		return encodeUsers(users)
	})
}

// compile-time interface check
var _ UserRepository = (*RedisUserRepo)(nil)
