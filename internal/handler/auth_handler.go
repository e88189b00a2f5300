// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/fixit/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*model.Session, *model.User, error)
}

// AuthHandler はログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginUserResponse はログインレスポンス内のユーザー公開フィールド。
type loginUserResponse struct {
	Username            string     `json:"username"`
	Name                string     `json:"name"`
	Role                model.Role `json:"role"`
	ForcePasswordChange bool       `json:"forcePasswordChange"`
}

// loginResponse はログイン成功レスポンスのボディ。
type loginResponse struct {
	Success bool              `json:"success"`
	Token   string            `json:"token"`
	User    loginUserResponse `json:"user"`
}

// Login は資格情報を検証し、セッショントークンを発行する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディのJSONが不正です"))
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   session.Token,
		User: loginUserResponse{
			Username:            user.Username,
			Name:                user.Name,
			Role:                user.Role,
			ForcePasswordChange: user.ForcePasswordChange,
		},
	})
}
