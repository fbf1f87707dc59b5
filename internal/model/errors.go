// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, product, oauth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeNotProductOwner    = "NOT_PRODUCT_OWNER"
	ErrCodeOAuthExchange      = "OAUTH_EXCHANGE_FAILED"
	ErrCodeOAuthProfile       = "OAUTH_PROFILE_FAILED"
	ErrCodeUnverifiedEmail    = "UNVERIFIED_EMAIL"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザーの存在有無を区別させないため、メッセージは常に同一とする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewForbiddenError は認証が必要な操作への未認証アクセスエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作にはログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "product",
		Action:   "商品IDを確認してください。",
	}
}

// NewNotProductOwnerError は商品の所有者以外による変更操作エラーを生成する。
func NewNotProductOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotProductOwner,
		Message:  "この商品を変更できるのは出品者のみです。",
		Category: "product",
		Action:   "自分が出品した商品のみ変更できます。",
	}
}

// NewOAuthExchangeError は認可コード交換失敗エラーを生成する。
// 上流のエラー詳細はログ専用で、クライアントには返さない。
func NewOAuthExchangeError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthExchange,
		Message:  "Googleアカウントでの認証に失敗しました。",
		Category: "oauth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewOAuthProfileError はプロフィール取得失敗エラーを生成する。
func NewOAuthProfileError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthProfile,
		Message:  "Googleアカウント情報の取得に失敗しました。",
		Category: "oauth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnverifiedEmailError はメール未確認のGoogleアカウントによるログイン拒否エラーを生成する。
func NewUnverifiedEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeUnverifiedEmail,
		Message:  "Googleアカウントのメールアドレスが確認されていません。",
		Category: "oauth",
		Action:   "Googleアカウントのメールアドレスを確認してから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
