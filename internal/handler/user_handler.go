package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fixit/internal/middleware"
	"github.com/hitoshi/fixit/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get は指定ユーザーの情報を取得する。
	Get(ctx context.Context, username string) (*model.User, error)
	// List は全ユーザーの縮約ビューを返す。
	List(ctx context.Context) (map[string]model.UserSummary, error)
	// Create は新規ユーザーを作成する。
	Create(ctx context.Context, username, password, name string, role model.Role) error
	// Delete は指定ユーザーを削除する。adminは削除できない。
	Delete(ctx context.Context, username string) error
	// ChangePassword は対象ユーザーのパスワードを変更する。
	ChangePassword(ctx context.Context, actor *model.Identity, target, password string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// createUserRequest はユーザー作成リクエストのボディ。
type createUserRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	Password string `json:"password"`
}

// profileResponse は自分のプロフィールのAPIレスポンス。
type profileResponse struct {
	Username            string     `json:"username"`
	Name                string     `json:"name"`
	Role                model.Role `json:"role"`
	PasswordChangedAt   *time.Time `json:"passwordChangedAt"`
	ForcePasswordChange bool       `json:"forcePasswordChange"`
}

// Me は現在のログインユーザーのプロフィールを返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.Get(r.Context(), identity.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Username:            user.Username,
		Name:                user.Name,
		Role:                user.Role,
		PasswordChangedAt:   user.PasswordChangedAt,
		ForcePasswordChange: user.ForcePasswordChange,
	})
}

// List は全ユーザーの縮約ビューを返す。管理者専用。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Create は新規ユーザーを作成する。管理者専用。
// POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディのJSONが不正です"))
		return
	}

	if err := h.service.Create(r.Context(), req.Username, req.Password, req.Name, req.Role); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// Delete は指定ユーザーを削除する。管理者専用。
// DELETE /api/users/{username}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.Delete(r.Context(), username); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ChangePassword は対象ユーザーのパスワードを変更する。
// 管理者または本人のみ許可される。
// PUT /api/users/{username}/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	target := chi.URLParam(r, "username")

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディのJSONが不正です"))
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity, target, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
