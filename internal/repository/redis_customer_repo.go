package repository

import (
	"context"

	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
)

// RedisCustomerRepo はKVストア上のcustomersブロブを扱う顧客リポジトリ。
type RedisCustomerRepo struct {
	store kv.Store
}

// NewRedisCustomerRepo はRedisCustomerRepoを生成する。
func NewRedisCustomerRepo(store kv.Store) *RedisCustomerRepo {
	return &RedisCustomerRepo{store: store}
}

// List は全顧客を格納順で返す。コレクション未作成の場合は空スライスを返す。
func (r *RedisCustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	blob, found, err := r.store.Get(ctx, customersKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.Customer{}, nil
	}
	return decodeCustomers(blob)
}

// Create は新規顧客を作成する。IDの採番（最大値+1、空なら1）は
// 書き込みトランザクション内で行われるため、同時作成がIDを
// 衝突させることはない。
func (r *RedisCustomerRepo) Create(ctx context.Context, fields map[string]any) (*model.Customer, error) {
	var created model.Customer
	err := r.store.Update(ctx, customersKey, func(current string, found bool) (string, error) {
		customers := []model.Customer{}
		if found {
			var err error
			customers, err = decodeCustomers(current)
			if err != nil {
				return "", err
			}
		}

		created = model.Customer{ID: nextID(customers)}
		created.Merge(fields)
		customers = append(customers, created)
		return encodeCustomers(customers)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update は指定IDの顧客に部分更新をマージする。
// リクエストのフィールドが既存キーを上書きし、idは変更されない。
func (r *RedisCustomerRepo) Update(ctx context.Context, id int, fields map[string]any) (*model.Customer, error) {
	var updated model.Customer
	err := r.store.Update(ctx, customersKey, func(current string, found bool) (string, error) {
		if !found {
			return "", model.NewCustomerNotFoundError(id)
		}

		customers, err := decodeCustomers(current)
		if err != nil {
			return "", err
		}

		idx := -1
		for i := range customers {
			if customers[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return "", model.NewCustomerNotFoundError(id)
		}

		customers[idx].Merge(fields)
		updated = customers[idx]
		return encodeCustomers(customers)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete は指定IDの顧客をコレクションから取り除く。
// 存在しないIDの削除もコレクションを変えずに成功する。
func (r *RedisCustomerRepo) Delete(ctx context.Context, id int) error {
	return r.store.Update(ctx, customersKey, func(current string, found bool) (string, error) {
		if !found {
			return encodeCustomers(nil)
		}

		customers, err := decodeCustomers(current)
		if err != nil {
			return "", err
		}

		kept := customers[:0]
		for _, c := range customers {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		return encodeCustomers(kept)
	})
}

// nextID は次の顧客IDを返す。既存の最大ID+1、コレクションが空なら1。
func nextID(customers []model.Customer) int {
	max := 0
	for _, c := range customers {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// compile-time interface check
var _ CustomerRepository = (*RedisCustomerRepo)(nil)
