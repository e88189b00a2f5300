package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// updateAttempts は楽観的トランザクションの最大試行回数。
	updateAttempts = 5
	// initialRetryDelay は競合時リトライの初回遅延。
	initialRetryDelay = 10 * time.Millisecond
	// maxRetryDelay は競合時リトライの最大遅延。
	maxRetryDelay = 160 * time.Millisecond
	// connectTimeout は起動時の疎通確認のタイムアウト。
	connectTimeout = 2 * time.Second
)

// Metrics はストア操作の計測インターフェース。
type Metrics interface {
	// RecordStoreConflictRetry は楽観的トランザクションの競合リトライを記録する。
	RecordStoreConflictRetry(key string)
	// RecordStoreLatency はストア操作のレイテンシを記録する。
	RecordStoreLatency(op string, duration time.Duration)
}

// Open はRedisクライアントを生成し、疎通を確認して返す。
func Open(addr, passwd string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: passwd,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return client, nil
}

// RedisStore はRedisを使用したStoreの実装。
type RedisStore struct {
	client  *redis.Client
	metrics Metrics // nilの場合は計測しない
}

// NewRedisStore はRedisStoreを生成する。metricsはnilでもよい。
func NewRedisStore(client *redis.Client, metrics Metrics) *RedisStore {
	return &RedisStore{
		client:  client,
		metrics: metrics,
	}
}

// Get は指定キーの値を取得する。キー不在はfound=falseで表現する。
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	defer s.observe("get", time.Now())

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return val, true, nil
}

// Put は指定キーに値を書き込む。
func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	defer s.observe("put", time.Now())

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Update は指定キーをWATCH/MULTI/EXECによる楽観的トランザクションで更新する。
// EXECが競合で失敗した場合は指数バックオフで再試行し、
// 上限回数を超えたらエラーを返す。fnが返したエラーはそのまま伝播する。
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	defer s.observe("update", time.Now())

	var lastErr error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		if attempt > 0 {
			if s.metrics != nil {
				s.metrics.RecordStoreConflictRetry(key)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Result()
			found := true
			if errors.Is(err, redis.Nil) {
				current, found = "", false
			} else if err != nil {
				return fmt.Errorf("%w: watch get %s: %v", ErrUnavailable, key, err)
			}

			next, err := fn(current, found)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// 監視中のキーが他の書き込みで変更された。最新値で再計算する。
			lastErr = err
			continue
		}
		return classify(err)
	}

	return fmt.Errorf("%w: update %s: conflict persisted after %d attempts: %v",
		ErrUnavailable, key, updateAttempts, lastErr)
}

// Ping はストアへの疎通を確認する。
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

// retryDelay は競合リトライ回数に基づく指数バックオフ遅延を返す。
func retryDelay(retries int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < retries; i++ {
		delay *= 2
		if delay > maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// classify は接続系のエラーをErrUnavailableに包み、
// UpdateFunc由来のドメインエラーはそのまま返す。
func classify(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// observe は操作のレイテンシを記録する。
func (s *RedisStore) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStoreLatency(op, time.Since(start))
	}
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
