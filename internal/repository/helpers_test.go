package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/fixit/internal/kv"
)

// testBcryptCost はテスト高速化のためbcryptの最小コストを使う。
const testBcryptCost = 4

func newTestStore(t *testing.T) (kv.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return kv.NewRedisStore(client, nil), mr
}
