package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// ValidatePassword はメールアドレスとパスワードを検証する。
	ValidatePassword(ctx context.Context, email, password string) (*model.User, error)
	// CreateSession は新規セッションを作成する。
	CreateSession(ctx context.Context, userID, userAgent string) (*model.Session, error)
	// IssueTokenPair はアクセストークンとリフレッシュトークンを発行する。
	IssueTokenPair(user *model.User, session *model.Session) (*auth.TokenPair, error)
	// ListSessions はユーザーの有効なセッション一覧を返す。
	ListSessions(ctx context.Context, userID string) ([]*model.Session, error)
	// InvalidateSession はセッションを無効化する。
	InvalidateSession(ctx context.Context, sessionID string) error
	// HandleGoogleCallback はGoogle OAuthの認可コードからユーザーとセッションを確立する。
	HandleGoogleCallback(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error)
}

// LoginMetrics はログイン試行のメトリクス記録インターフェース。
type LoginMetrics interface {
	RecordLogin(method, result string)
}

// SessionHandlerConfig はセッションハンドラーの設定。
type SessionHandlerConfig struct {
	// Origin はOAuthフロー完了後のリダイレクト先となるフロントエンドのオリジン。
	Origin string

	CookieDomain    string
	CookieSecure    bool
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SessionHandler はセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
	metrics LoginMetrics
	config  SessionHandlerConfig
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface, metrics LoginMetrics, config SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

// createSessionRequest はログインリクエストのボディ。
type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenPairResponse はログイン成功時のレスポンス。
type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// sessionResponse はセッション情報のAPIレスポンス。
type sessionResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserAgent string `json:"userAgent"`
	Valid     bool   `json:"valid"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// toSessionResponse はmodel.SessionをAPIレスポンスに変換する。
func toSessionResponse(session *model.Session) sessionResponse {
	return sessionResponse{
		ID:        session.ID,
		UserID:    session.UserID,
		UserAgent: session.UserAgent,
		Valid:     session.Valid,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateSession はパスワードログインを処理する。
// POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスとパスワードは必須です"))
		return
	}

	user, err := h.service.ValidatePassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin("password", "failure")
		handleServiceError(w, err)
		return
	}

	session, err := h.service.CreateSession(r.Context(), user.ID, r.UserAgent())
	if err != nil {
		h.recordLogin("password", "failure")
		handleServiceError(w, err)
		return
	}

	pair, err := h.service.IssueTokenPair(user, session)
	if err != nil {
		h.recordLogin("password", "failure")
		handleServiceError(w, err)
		return
	}

	h.recordLogin("password", "success")
	h.setAuthCookies(w, pair)

	writeJSONResponse(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// ListSessions は認証済みユーザーの有効なセッション一覧を返す。
// GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// deletedSessionResponse はログアウト成功時のレスポンス。
// クライアント側の保持トークンを破棄させるため両方nullを返す。
type deletedSessionResponse struct {
	AccessToken  *string `json:"accessToken"`
	RefreshToken *string `json:"refreshToken"`
}

// DeleteSession は現在のセッションを無効化する（ログアウト）。
// DELETE /api/sessions
//
// セッションレコードは監査のため削除せず、validフラグをfalseにする。
// Cookieの削除は行わない。無効化されたセッションのトークンは
// 以降の検証・再発行で拒否されるため、Cookieが残っていても害はない。
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	if err := h.service.InvalidateSession(r.Context(), claims.Session); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, deletedSessionResponse{})
}

// GoogleOAuthCallback はGoogle OAuthのリダイレクトを処理する。
// GET /api/sessions/oauth/google
//
// メールアドレス未確認のGoogleアカウントは403で拒否する。
// その他のOAuthエラーはフロントエンドのエラーページへリダイレクトする。
func (h *SessionHandler) GoogleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.recordLogin("oauth", "failure")
		h.redirectToOAuthError(w, r)
		return
	}

	user, session, err := h.service.HandleGoogleCallback(r.Context(), code, r.UserAgent())
	if err != nil {
		h.recordLogin("oauth", "failure")

		// メール未確認は明示的な403。それ以外はエラーページへ。
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUnverifiedEmail {
			writeAPIErrorResponse(w, http.StatusForbidden, apiErr)
			return
		}

		slog.Error("google oauth callback failed", slog.String("error", err.Error()))
		h.redirectToOAuthError(w, r)
		return
	}

	pair, err := h.service.IssueTokenPair(user, session)
	if err != nil {
		h.recordLogin("oauth", "failure")
		slog.Error("google oauth token issue failed", slog.String("error", err.Error()))
		h.redirectToOAuthError(w, r)
		return
	}

	h.recordLogin("oauth", "success")
	h.setAuthCookies(w, pair)

	http.Redirect(w, r, h.config.Origin, http.StatusFound)
}

// redirectToOAuthError はフロントエンドのOAuthエラーページへリダイレクトする。
func (h *SessionHandler) redirectToOAuthError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.Origin+"/oauth/error", http.StatusFound)
}

// setAuthCookies はトークンペアをhttpOnly Cookieとして設定する。
func (h *SessionHandler) setAuthCookies(w http.ResponseWriter, pair *auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// recordLogin はメトリクスが設定されている場合のみログイン試行を記録する。
func (h *SessionHandler) recordLogin(method, result string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(method, result)
	}
}
