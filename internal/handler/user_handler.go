package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// minPasswordLength は登録時に要求するパスワードの最小文字数。
const minPasswordLength = 6

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, email, name, password string) (*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// createUserRequest はユーザー登録リクエストのボディ。
type createUserRequest struct {
	Email                string `json:"email"`
	Name                 string `json:"name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Picture   string `json:"picture,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// toUserResponse はmodel.UserをAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Picture:   user.Picture,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// validateCreateUserRequest はユーザー登録リクエストを検証する。
// 問題がなければnilを返す。
func validateCreateUserRequest(req *createUserRequest) *model.APIError {
	if req.Email == "" {
		return model.NewValidationError("メールアドレスが空です")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	if req.Name == "" {
		return model.NewValidationError("名前が空です")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return model.NewValidationError("パスワードは6文字以上にしてください")
	}
	if req.Password != req.PasswordConfirmation {
		return model.NewValidationError("パスワードと確認用パスワードが一致しません")
	}
	return nil
}

// CreateUser はユーザー登録を処理する。
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateCreateUserRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// meResponse は認証済みユーザー情報のAPIレスポンス。
// アクセストークンのペイロードをそのまま返す。
type meResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Session string `json:"session"`
}

// Me は認証済みユーザーの情報を返す。
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	writeJSONResponse(w, http.StatusOK, meResponse{
		ID:      claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Session: claims.Session,
	})
}
