package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
)

// CustomerServiceInterface は顧客ハンドラーが必要とするサービスインターフェース。
type CustomerServiceInterface interface {
	// List は全顧客を格納順で返す。
	List(ctx context.Context) ([]model.Customer, error)
	// Create は新規顧客を作成し、採番済みのレコードを返す。
	Create(ctx context.Context, fields map[string]any) (*model.Customer, error)
	// Update は指定IDの顧客に部分更新をマージする。
	Update(ctx context.Context, id int, fields map[string]any) (*model.Customer, error)
	// Delete は指定IDの顧客を削除する。
	Delete(ctx context.Context, id int) error
}

// CustomerHandler は顧客CRUDのHTTPハンドラー。
type CustomerHandler struct {
	service CustomerServiceInterface
}

// NewCustomerHandler はCustomerHandlerを生成する。
func NewCustomerHandler(service CustomerServiceInterface) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List は全顧客を返す。
// GET /api/customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, customers)
}

// Create は新規顧客を作成する。
// POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeCustomerFields(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, created)
}

// Update は指定IDの顧客に部分更新をマージする。
// PUT /api/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		// 数値でないIDはどの顧客にも一致しない
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCustomerNotFoundError(0))
		return
	}

	fields, ok := decodeCustomerFields(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete は指定IDの顧客を削除する。存在しないIDの削除も成功を返す。
// DELETE /api/customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		// 数値でないIDはどの顧客にも一致しないため、削除としては成功扱い
		writeSuccess(w)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// decodeCustomerFields はリクエストボディをJSONオブジェクトとしてデコードする。
// 失敗時はエラーレスポンスを書き込み、okにfalseを返す。
func decodeCustomerFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディはJSONオブジェクトである必要があります"))
		return nil, false
	}
	return fields, true
}

// --- 共通ヘルパー関数 ---

// successResponse はレコードを返さない変更系操作の成功レスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeSuccess は{success:true}レスポンスを書き込む。
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// ストア障害は「データなし」と区別して5xxで返す。
func handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, kv.ErrUnavailable) {
		slog.Error("store unavailable", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeSessionExpired, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeDuplicateUsername, model.ErrCodeAdminProtected:
		return http.StatusBadRequest
	case model.ErrCodeCustomerNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
