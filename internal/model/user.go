// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleAdmin は管理者ロール。ユーザー管理操作が許可される。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザーロール。
	RoleUser Role = "user"
)

// User はダッシュボード利用ユーザーを表す。
// usernameをキーとしてusersコレクションに格納される。
type User struct {
	Username            string
	PasswordHash        string // bcryptハッシュ。平文パスワードは保持しない
	Name                string
	Role                Role
	ForcePasswordChange bool
	PasswordChangedAt   *time.Time // 未変更の場合はnil
}

// IsAdmin は管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary はユーザー一覧向けの公開フィールドのみの表現。
// パスワードハッシュを外部に出さないための縮約ビュー。
type UserSummary struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Identity は認証済みリクエストの操作主体を表す。
// セッションミドルウェアがリクエストコンテキストに注入する。
type Identity struct {
	Username string
	Role     Role
	IsAdmin  bool
}

// Session はベアラートークンで引けるログインセッションを表す。
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Expired はセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
