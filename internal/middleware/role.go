package middleware

import (
	"net/http"

	"github.com/hitoshi/fixit/internal/model"
)

// RequireAdmin は管理者ロールのみを通過させるミドルウェア。
// セッションミドルウェアの内側で使用する。
// 認証済みでも管理者でない場合は403を返す。
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}

		if !identity.IsAdmin {
			WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
			return
		}

		next.ServeHTTP(w, r)
	})
}
