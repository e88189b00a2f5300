// Package repository はコレクション永続化のインターフェースを定義する。
// 3つのコレクション（users, customers, sessions）はそれぞれ1つの
// ストアキーにブロブとして保持され、更新は常にブロブ全体の
// read-modify-writeとして行われる。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/fixit/internal/model"
)

// ストアのキー名。元システムのキー配置を維持する。
const (
	usersKey     = "users"
	customersKey = "customers"
	sessionsKey  = "sessions"
)

// UserRepository はユーザーコレクションの永続化インターフェース。
type UserRepository interface {
	// All は全ユーザーをusernameキーのマップで返す。
	// コレクションが未作成の場合はデフォルトのadminユーザーを
	// ブートストラップしてから返す。
	All(ctx context.Context) (map[string]model.User, error)

	// FindByUsername は指定ユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が既に存在する場合はDUPLICATE_USERNAMEエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// Delete は指定ユーザーを削除する。存在しないユーザーの削除は成功扱い。
	Delete(ctx context.Context, username string) error

	// SetPassword は指定ユーザーのパスワードハッシュと
	// 強制変更フラグ、変更日時を同一書き込みで更新する。
	// ユーザーが存在しない場合はUSER_NOT_FOUNDエラーを返す。
	SetPassword(ctx context.Context, username, hash string, forceChange bool, changedAt time.Time) error
}

// CustomerRepository は顧客コレクションの永続化インターフェース。
type CustomerRepository interface {
	// List は全顧客を格納順で返す。コレクションが空の場合は空スライスを返す。
	List(ctx context.Context) ([]model.Customer, error)

	// Create は新規顧客を作成する。IDは既存の最大値+1（空なら1）を
	// 書き込みトランザクション内で採番する。
	Create(ctx context.Context, fields map[string]any) (*model.Customer, error)

	// Update は指定IDの顧客に部分更新をマージする。
	// 見つからない場合はCUSTOMER_NOT_FOUNDエラーを返す。
	Update(ctx context.Context, id int, fields map[string]any) (*model.Customer, error)

	// Delete は指定IDの顧客を削除する。存在しないIDの削除は成功扱い。
	Delete(ctx context.Context, id int) error
}

// SessionRepository はセッションコレクションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを追加する。同一書き込みの中で
	// 期限切れセッションを刈り取る。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。
	// 不在または期限切れの場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int, error)
}
