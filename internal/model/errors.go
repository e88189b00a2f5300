package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, customer, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeSessionExpired      = "SESSION_EXPIRED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeDuplicateUsername   = "DUPLICATE_USERNAME"
	ErrCodeAdminProtected      = "ADMIN_PROTECTED"
	ErrCodeCustomerNotFound    = "CUSTOMER_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewSessionExpiredError はセッション無効エラーを生成する。
// トークン不明と期限切れは区別せず同じレスポンスを返す。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションが無効または期限切れです。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤りかは開示しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが正しくありません: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewAdminProtectedError は保護ユーザー削除エラーを生成する。
// adminユーザーはロールに関わらず削除できない。
func NewAdminProtectedError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminProtected,
		Message:  "adminユーザーは削除できません。",
		Category: "validation",
		Action:   "削除対象のユーザー名を確認してください。",
	}
}

// NewCustomerNotFoundError は顧客未検出エラーを生成する。
func NewCustomerNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeCustomerNotFound,
		Message:  fmt.Sprintf("指定された顧客が見つかりません: %d", id),
		Category: "customer",
		Action:   "顧客IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "user",
		Action:   "ユーザー名を確認してください。",
	}
}

// NewStoreUnavailableError はストア接続不能エラーを生成する。
// キー不在とストア障害は区別し、障害は5xxとして返す。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアに接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUpstreamUnavailableError はダッシュボードHTMLの取得失敗エラーを生成する。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "ダッシュボードの取得に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRouteNotFoundError はルート未定義エラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     "ROUTE_NOT_FOUND",
		Message:  "指定されたルートは存在しません。",
		Category: "system",
		Action:   "リクエストのパスとメソッドを確認してください。",
	}
}
