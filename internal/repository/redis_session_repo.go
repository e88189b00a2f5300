package repository

import (
	"context"
	"time"

	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
)

// RedisSessionRepo はKVストア上のsessionsブロブを扱うセッションリポジトリ。
type RedisSessionRepo struct {
	store kv.Store
	now   func() time.Time
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(store kv.Store) *RedisSessionRepo {
	return &RedisSessionRepo{
		store: store,
		now:   time.Now,
	}
}

// Create はセッションを追加する。ブロブをどのみち書き換えるこの機会に
// 期限切れセッションも併せて刈り取り、コレクションの無限増殖を防ぐ。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	now := r.now()
	return r.store.Update(ctx, sessionsKey, func(current string, found bool) (string, error) {
		sessions := map[string]model.Session{}
		if found {
			var err error
			sessions, err = decodeSessions(current)
			if err != nil {
				return "", err
			}
		}

		for token, s := range sessions {
			if s.Expired(now) {
				delete(sessions, token)
			}
		}

		sessions[session.Token] = *session
		return encodeSessions(sessions)
	})
}

// FindByToken は指定トークンのセッションを取得する。
// 不在と期限切れはどちらもnilとして返す。
func (r *RedisSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	blob, found, err := r.store.Get(ctx, sessionsKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	sessions, err := decodeSessions(blob)
	if err != nil {
		return nil, err
	}

	s, ok := sessions[token]
	if !ok || s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *RedisSessionRepo) DeleteExpired(ctx context.Context) (int, error) {
	now := r.now()
	pruned := 0
	err := r.store.Update(ctx, sessionsKey, func(current string, found bool) (string, error) {
		pruned = 0
		if !found {
			return encodeSessions(nil)
		}

		sessions, err := decodeSessions(current)
		if err != nil {
			return "", err
		}

		for token, s := range sessions {
			if s.Expired(now) {
				delete(sessions, token)
				pruned++
			}
		}
		return encodeSessions(sessions)
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

// compile-time interface check
var _ SessionRepository = (*RedisSessionRepo)(nil)
