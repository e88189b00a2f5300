// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに操作主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// Authenticator はベアラートークンから操作主体を解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// NewSessionMiddleware はAuthorizationヘッダーのベアラートークンから
// セッションを検証するミドルウェアを返す。
// 解決した操作主体（username, role, isAdmin）をリクエストコンテキストに注入する。
// トークン不在と検証失敗は401、ストア障害は503を返す。
func NewSessionMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取得
			token, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. セッションの有効性を検証し、操作主体を解決
			identity, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthenticateError(w, err)
				return
			}

			// 3. 操作主体をコンテキストに注入
			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// writeAuthenticateError は認証エラーを種別に応じたレスポンスに変換する。
// ストア障害を「セッションなし」と偽って401にしてはならない。
func writeAuthenticateError(w http.ResponseWriter, err error) {
	if errors.Is(err, kv.ErrUnavailable) {
		slog.Error("session lookup failed: store unavailable",
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	slog.Error("failed to authenticate session",
		slog.String("error", err.Error()),
	)
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
}

// IdentityFromContext はリクエストコンテキストから操作主体を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに操作主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
