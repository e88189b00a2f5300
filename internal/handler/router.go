package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fixit/internal/middleware"
	"github.com/hitoshi/fixit/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder

	// サービス
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	CustomerService CustomerServiceInterface

	// 境界ハンドラー
	Dashboard      http.Handler
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → CORS →（認証ルートのみ）Session →（管理者ルートのみ）RequireAdmin
//
// ログイン、ルート（ダッシュボード）、ヘルスチェック、メトリクスは
// セッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	customerHandler := NewCustomerHandler(deps.CustomerService)

	// 未定義のルートにも統一エラーフォーマットで応答する
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})

	// --- 認証不要のルート ---

	if deps.Dashboard != nil {
		r.Method(http.MethodGet, "/", deps.Dashboard)
	}
	r.Post("/api/login", authHandler.Login)
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))

		// 自分のプロフィール
		r.Get("/api/users/me", userHandler.Me)

		// 顧客管理（認証があればロールを問わない）
		r.Route("/api/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", customerHandler.Update)
				r.Delete("/", customerHandler.Delete)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			// 一覧・作成・削除は管理者専用
			r.With(middleware.RequireAdmin).Get("/", userHandler.List)
			r.With(middleware.RequireAdmin).Post("/", userHandler.Create)
			r.With(middleware.RequireAdmin).Delete("/{username}", userHandler.Delete)

			// パスワード変更は管理者または本人（判定はサービス層）
			r.Put("/{username}/password", userHandler.ChangePassword)
		})
	})

	return r
}
