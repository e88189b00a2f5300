package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fixit/internal/model"
)

// HealthChecker はヘルスチェックが必要とするストア疎通確認のインターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthHandler はストアへの疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.Ping(r.Context()); err != nil {
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
