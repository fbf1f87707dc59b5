package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/token"
)

type mockSessionService struct {
	validatePasswordFn     func(ctx context.Context, email, password string) (*model.User, error)
	createSessionFn        func(ctx context.Context, userID, userAgent string) (*model.Session, error)
	issueTokenPairFn       func(user *model.User, session *model.Session) (*auth.TokenPair, error)
	listSessionsFn         func(ctx context.Context, userID string) ([]*model.Session, error)
	invalidateSessionFn    func(ctx context.Context, sessionID string) error
	handleGoogleCallbackFn func(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error)
}

func (m *mockSessionService) ValidatePassword(ctx context.Context, email, password string) (*model.User, error) {
	if m.validatePasswordFn != nil {
		return m.validatePasswordFn(ctx, email, password)
	}
	return &model.User{ID: "user-1", Email: email}, nil
}

func (m *mockSessionService) CreateSession(ctx context.Context, userID, userAgent string) (*model.Session, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, userID, userAgent)
	}
	return &model.Session{ID: "session-1", UserID: userID, UserAgent: userAgent, Valid: true}, nil
}

func (m *mockSessionService) IssueTokenPair(user *model.User, session *model.Session) (*auth.TokenPair, error) {
	if m.issueTokenPairFn != nil {
		return m.issueTokenPairFn(user, session)
	}
	return &auth.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}, nil
}

func (m *mockSessionService) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	if m.listSessionsFn != nil {
		return m.listSessionsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSessionService) InvalidateSession(ctx context.Context, sessionID string) error {
	if m.invalidateSessionFn != nil {
		return m.invalidateSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockSessionService) HandleGoogleCallback(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
	if m.handleGoogleCallbackFn != nil {
		return m.handleGoogleCallbackFn(ctx, code, userAgent)
	}
	return nil, nil, nil
}

var _ SessionServiceInterface = (*mockSessionService)(nil)

type mockLoginMetrics struct {
	logins []string
}

func (m *mockLoginMetrics) RecordLogin(method, result string) {
	m.logins = append(m.logins, method+":"+result)
}

func testSessionHandlerConfig() SessionHandlerConfig {
	return SessionHandlerConfig{
		Origin:          "https://app.example.com",
		CookieDomain:    "",
		CookieSecure:    true,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 365 * 24 * time.Hour,
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// パスワードログインの成功でCookieとトークンペアが返ることを検証
func TestCreateSession_Success_SetsCookiesAndBody(t *testing.T) {
	metrics := &mockLoginMetrics{}
	h := NewSessionHandler(&mockSessionService{}, metrics, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"email":"test@example.com","password":"password123"}`))
	req.Header.Set("User-Agent", "TestAgent/1.0")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}

	var body tokenPairResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.AccessToken != "access-token" || body.RefreshToken != "refresh-token" {
		t.Errorf("unexpected token pair: %+v", body)
	}

	cookies := rec.Result().Cookies()

	access := findCookie(cookies, "accessToken")
	if access == nil {
		t.Fatal("expected accessToken cookie")
	}
	if !access.HttpOnly || !access.Secure || access.SameSite != http.SameSiteStrictMode {
		t.Error("accessToken cookie must be httpOnly, secure, SameSite=Strict")
	}
	if access.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Errorf("accessToken MaxAge = %d, want 900", access.MaxAge)
	}

	refresh := findCookie(cookies, "refreshToken")
	if refresh == nil {
		t.Fatal("expected refreshToken cookie")
	}
	if refresh.MaxAge != int((365 * 24 * time.Hour).Seconds()) {
		t.Errorf("refreshToken MaxAge = %d, want 1 year", refresh.MaxAge)
	}

	if len(metrics.logins) != 1 || metrics.logins[0] != "password:success" {
		t.Errorf("logins = %v, want [password:success]", metrics.logins)
	}
}

// 認証失敗が401になることを検証
func TestCreateSession_InvalidCredentials_Returns401(t *testing.T) {
	svc := &mockSessionService{
		validatePasswordFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	metrics := &mockLoginMetrics{}
	h := NewSessionHandler(svc, metrics, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"email":"test@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if findCookie(rec.Result().Cookies(), "accessToken") != nil {
		t.Error("cookies must not be set on failed login")
	}
	if len(metrics.logins) != 1 || metrics.logins[0] != "password:failure" {
		t.Errorf("logins = %v, want [password:failure]", metrics.logins)
	}
}

// 空のメールアドレス・パスワードが400になることを検証
func TestCreateSession_MissingFields_Returns400(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{}, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"email":"","password":""}`))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 有効なセッション一覧が返ることを検証
func TestListSessions_ReturnsSessions(t *testing.T) {
	svc := &mockSessionService{
		listSessionsFn: func(ctx context.Context, userID string) ([]*model.Session, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return []*model.Session{
				{ID: "session-1", UserID: "user-1", Valid: true},
				{ID: "session-2", UserID: "user-1", Valid: true},
			}, nil
		},
	}
	h := NewSessionHandler(svc, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	ctx := middleware.ContextWithCurrentUser(req.Context(), &token.Claims{UserID: "user-1", Session: "session-1"})
	rec := httptest.NewRecorder()
	h.ListSessions(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body []sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Errorf("sessions = %d, want 2", len(body))
	}
}

// ログアウトで現在のセッションが無効化され、nullのトークンペアが返ることを検証
func TestDeleteSession_InvalidatesAndReturnsNulls(t *testing.T) {
	var invalidated string
	svc := &mockSessionService{
		invalidateSessionFn: func(ctx context.Context, sessionID string) error {
			invalidated = sessionID
			return nil
		},
	}
	h := NewSessionHandler(svc, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions", nil)
	ctx := middleware.ContextWithCurrentUser(req.Context(), &token.Claims{UserID: "user-1", Session: "session-1"})
	rec := httptest.NewRecorder()
	h.DeleteSession(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if invalidated != "session-1" {
		t.Errorf("invalidated session = %q, want session-1", invalidated)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["accessToken"] != nil || body["refreshToken"] != nil {
		t.Errorf("expected null token pair, got %v", body)
	}

	// Cookieの削除は行わない
	if len(rec.Result().Cookies()) != 0 {
		t.Error("logout must not touch cookies")
	}
}

// 未認証のログアウトが403になることを検証
func TestDeleteSession_NoUser_Returns403(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{}, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	h.DeleteSession(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// OAuthコールバック成功でCookie設定とオリジンへのリダイレクトを検証
func TestGoogleOAuthCallback_Success_RedirectsToOrigin(t *testing.T) {
	svc := &mockSessionService{
		handleGoogleCallbackFn: func(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want auth-code", code)
			}
			return &model.User{ID: "user-1", Email: "test@example.com"},
				&model.Session{ID: "session-1", UserID: "user-1", Valid: true},
				nil
		},
	}
	metrics := &mockLoginMetrics{}
	h := NewSessionHandler(svc, metrics, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/oauth/google?code=auth-code", nil)
	rec := httptest.NewRecorder()
	h.GoogleOAuthCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://app.example.com" {
		t.Errorf("Location = %q, want origin", got)
	}
	if findCookie(rec.Result().Cookies(), "accessToken") == nil {
		t.Error("expected accessToken cookie")
	}
	if findCookie(rec.Result().Cookies(), "refreshToken") == nil {
		t.Error("expected refreshToken cookie")
	}
	if len(metrics.logins) != 1 || metrics.logins[0] != "oauth:success" {
		t.Errorf("logins = %v, want [oauth:success]", metrics.logins)
	}
}

// メール未確認のアカウントが403で拒否されることを検証
func TestGoogleOAuthCallback_UnverifiedEmail_Returns403(t *testing.T) {
	svc := &mockSessionService{
		handleGoogleCallbackFn: func(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewUnverifiedEmailError()
		},
	}
	h := NewSessionHandler(svc, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/oauth/google?code=auth-code", nil)
	rec := httptest.NewRecorder()
	h.GoogleOAuthCallback(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != model.ErrCodeUnverifiedEmail {
		t.Errorf("error code = %q, want UNVERIFIED_EMAIL", body.Code)
	}
}

// その他のOAuthエラーがエラーページへリダイレクトされることを検証
func TestGoogleOAuthCallback_OtherError_RedirectsToErrorPage(t *testing.T) {
	svc := &mockSessionService{
		handleGoogleCallbackFn: func(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewOAuthExchangeError()
		},
	}
	h := NewSessionHandler(svc, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/oauth/google?code=bad-code", nil)
	rec := httptest.NewRecorder()
	h.GoogleOAuthCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://app.example.com/oauth/error" {
		t.Errorf("Location = %q, want error page", got)
	}
}

// codeパラメータなしがエラーページへリダイレクトされることを検証
func TestGoogleOAuthCallback_MissingCode_RedirectsToErrorPage(t *testing.T) {
	callbackCalled := false
	svc := &mockSessionService{
		handleGoogleCallbackFn: func(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
			callbackCalled = true
			return nil, nil, nil
		},
	}
	h := NewSessionHandler(svc, nil, testSessionHandlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/oauth/google", nil)
	rec := httptest.NewRecorder()
	h.GoogleOAuthCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://app.example.com/oauth/error" {
		t.Errorf("Location = %q, want error page", got)
	}
	if callbackCalled {
		t.Error("service must not be called without a code")
	}
}
