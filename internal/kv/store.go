// Package kv は共有キーバリューストアとの境界を提供する。
// コレクションは1キー1ブロブで保持され、read-modify-writeは
// 楽観的トランザクションで直列化される。
package kv

import (
	"context"
	"errors"
)

// ErrUnavailable はストアへの到達に失敗したことを表す。
// キー不在はエラーではなくfound=falseとして区別される。
var ErrUnavailable = errors.New("kv: store unavailable")

// UpdateFunc は現在値から次の値を計算する。
// foundがfalseの場合、キーは未作成でcurrentは空文字列。
// エラーを返すと書き込みは行われず、そのエラーが呼び出し元へ伝播する。
type UpdateFunc func(current string, found bool) (next string, err error)

// Store はキーバリューストアの操作インターフェース。
type Store interface {
	// Get は指定キーの値を取得する。キーが存在しない場合はfound=falseを返す。
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Put は指定キーに値を書き込む。
	Put(ctx context.Context, key, value string) error

	// Update は指定キーをread-modify-writeで更新する。
	// 読み取りから書き込みまでの間に他の書き込みが割り込んだ場合は
	// 最新値で再計算を繰り返し、更新の喪失を防ぐ。
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
}
