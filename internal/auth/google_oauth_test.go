package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

// newGoogleTestServers はトークン交換とユーザー情報取得のテストサーバーを起動する。
func newGoogleTestServers(t *testing.T, tokenHandler, userInfoHandler http.HandlerFunc) *GoogleOAuthProvider {
	t.Helper()

	tokenServer := httptest.NewServer(tokenHandler)
	t.Cleanup(tokenServer.Close)

	userInfoServer := httptest.NewServer(userInfoHandler)
	t.Cleanup(userInfoServer.Close)

	return NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/sessions/oauth/google",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userInfoServer.URL,
	})
}

// 認可コード交換とプロフィール取得の成功パスを検証
func TestExchangeCode_Success(t *testing.T) {
	var tokenForm struct {
		code, grantType string
	}

	provider := newGoogleTestServers(t,
		func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse token form: %v", err)
			}
			tokenForm.code = r.PostFormValue("code")
			tokenForm.grantType = r.PostFormValue("grant_type")

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"google-access-token","token_type":"Bearer","expires_in":3600}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer google-access-token" {
				t.Errorf("Authorization = %q, want bearer token", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"google-123","email":"test@example.com","verified_email":true,"name":"Test User","picture":"https://example.com/p.jpg"}`))
		},
	)

	profile, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if tokenForm.code != "auth-code" {
		t.Errorf("sent code = %q, want %q", tokenForm.code, "auth-code")
	}
	if tokenForm.grantType != "authorization_code" {
		t.Errorf("grant_type = %q, want %q", tokenForm.grantType, "authorization_code")
	}

	if profile.ProviderUserID != "google-123" {
		t.Errorf("ProviderUserID = %q, want %q", profile.ProviderUserID, "google-123")
	}
	if profile.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", profile.Email, "test@example.com")
	}
	if !profile.EmailVerified {
		t.Error("expected EmailVerified = true")
	}
	if profile.Provider != "google" {
		t.Errorf("Provider = %q, want %q", profile.Provider, "google")
	}
}

// verified_email=falseがプロフィールにそのまま反映されることを検証
func TestExchangeCode_UnverifiedEmail_Propagated(t *testing.T) {
	provider := newGoogleTestServers(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"token"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"google-123","email":"test@example.com","verified_email":false}`))
		},
	)

	profile, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if profile.EmailVerified {
		t.Error("expected EmailVerified = false")
	}
}

// トークンエンドポイントの失敗がOAUTH_EXCHANGE_FAILEDになることを検証
func TestExchangeCode_TokenEndpointFailure(t *testing.T) {
	provider := newGoogleTestServers(t,
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("user info endpoint must not be called when token exchange fails")
		},
	)

	_, err := provider.ExchangeCode(context.Background(), "bad-code")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOAuthExchange {
		t.Fatalf("expected OAUTH_EXCHANGE_FAILED error, got %v", err)
	}
}

// ユーザー情報エンドポイントの失敗がOAUTH_PROFILE_FAILEDになることを検証
func TestExchangeCode_UserInfoFailure(t *testing.T) {
	provider := newGoogleTestServers(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"token"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		},
	)

	_, err := provider.ExchangeCode(context.Background(), "auth-code")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOAuthProfile {
		t.Fatalf("expected OAUTH_PROFILE_FAILED error, got %v", err)
	}
}

// 空のアクセストークンが交換失敗として扱われることを検証
func TestExchangeCode_EmptyAccessToken(t *testing.T) {
	provider := newGoogleTestServers(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := provider.ExchangeCode(context.Background(), "auth-code")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOAuthExchange {
		t.Fatalf("expected OAUTH_EXCHANGE_FAILED error, got %v", err)
	}
}
