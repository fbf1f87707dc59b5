// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/storefront/internal/token"
)

const (
	accessTokenCookieName  = "accessToken"
	refreshTokenCookieName = "refreshToken"

	// refreshTokenHeaderName はCookieを使わないクライアント用の
	// リフレッシュトークン送信ヘッダー。Cookieが存在する場合はCookieを優先する。
	refreshTokenHeaderName = "x-refresh"

	// reissuedTokenHeaderName は再発行されたアクセストークンを
	// クライアントに伝えるレスポンスヘッダー。
	reissuedTokenHeaderName = "x-access-token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// currentUserContextKey はリクエストコンテキストに認証済みユーザーの
// トークンペイロードを格納するためのキー。
var currentUserContextKey = contextKey("current_user")

// TokenVerifier はアクセストークンの検証インターフェース。
// token.Issuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) token.VerifyResult
}

// TokenReissuer はリフレッシュトークンによるアクセストークン再発行のインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenReissuer interface {
	ReissueAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// ReissueMetrics はトークン再発行のメトリクス記録インターフェース。
type ReissueMetrics interface {
	RecordTokenReissue()
}

// SessionMiddlewareConfig はセッションミドルウェアの設定。
type SessionMiddlewareConfig struct {
	CookieDomain   string
	CookieSecure   bool
	AccessTokenTTL int // 再発行時に設定するCookieの有効期間（秒）
}

// NewSessionMiddleware はリクエストからトークンを抽出して検証し、
// 認証済みユーザーのペイロードをリクエストコンテキストに注入する
// ミドルウェアを返す。
//
// アクセストークンはaccessToken Cookie、なければAuthorization: Bearerヘッダーから取得する。
// 検証結果による分岐:
//   - valid:   ペイロードをコンテキストに注入して続行
//   - expired: リフレッシュトークン（refreshToken Cookie、なければx-refreshヘッダー）で
//     再発行を試みる。成功時は新トークンをx-access-tokenヘッダーと
//     置き換えCookieで返し、そのペイロードを注入する
//   - invalid: 何も注入せず続行
//
// このミドルウェア自身はリクエストを拒否しない。認証の強制は
// 後段のRequireUserが行う。
func NewSessionMiddleware(verifier TokenVerifier, reissuer TokenReissuer, reissueMetrics ReissueMetrics, config SessionMiddlewareConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken := extractAccessToken(r)
			if accessToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			result := verifier.Verify(accessToken)
			switch result.Status {
			case token.StatusValid:
				ctx := ContextWithCurrentUser(r.Context(), result.Claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			case token.StatusExpired:
				refreshToken := extractRefreshToken(r)
				if refreshToken == "" {
					next.ServeHTTP(w, r)
					return
				}

				newAccessToken, err := reissuer.ReissueAccessToken(r.Context(), refreshToken)
				if err != nil {
					slog.Error("failed to reissue access token",
						slog.String("error", err.Error()),
					)
					next.ServeHTTP(w, r)
					return
				}
				if newAccessToken == "" {
					// リフレッシュ条件を満たさない場合は未認証のまま続行
					next.ServeHTTP(w, r)
					return
				}

				w.Header().Set(reissuedTokenHeaderName, newAccessToken)
				http.SetCookie(w, &http.Cookie{
					Name:     accessTokenCookieName,
					Value:    newAccessToken,
					Path:     "/",
					Domain:   config.CookieDomain,
					MaxAge:   config.AccessTokenTTL,
					HttpOnly: true,
					Secure:   config.CookieSecure,
					SameSite: http.SameSiteStrictMode,
				})

				if reissueMetrics != nil {
					reissueMetrics.RecordTokenReissue()
				}

				reissued := verifier.Verify(newAccessToken)
				if reissued.Status != token.StatusValid {
					next.ServeHTTP(w, r)
					return
				}

				ctx := ContextWithCurrentUser(r.Context(), reissued.Claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			default:
				// 署名不正・形式不正のトークンは再発行の対象にしない
				next.ServeHTTP(w, r)
				return
			}
		})
	}
}

// extractAccessToken はCookieまたはAuthorizationヘッダーからアクセストークンを取得する。
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authorization := r.Header.Get("Authorization")
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimPrefix(authorization, "Bearer ")
	}

	return ""
}

// extractRefreshToken はCookieまたはx-refreshヘッダーからリフレッシュトークンを取得する。
// Cookieを優先する。
func extractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(refreshTokenHeaderName)
}

// CurrentUserFromContext はリクエストコンテキストから認証済みユーザーの
// トークンペイロードを取得する。セッションミドルウェアを通過した
// 認証済みリクエストでのみ有効。
func CurrentUserFromContext(ctx context.Context) (*token.Claims, error) {
	claims, ok := ctx.Value(currentUserContextKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("current user not found in context")
	}
	return claims, nil
}

// ContextWithCurrentUser はコンテキストにトークンペイロードを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCurrentUser(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, currentUserContextKey, claims)
}
