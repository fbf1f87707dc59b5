package middleware

import (
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// NewRequireUserMiddleware は認証済みユーザーの存在を強制するミドルウェアを返す。
// セッションミドルウェアがコンテキストにユーザーを注入しなかった
// リクエストには403 Forbiddenを返す。
// 認証必須のルートグループでセッションミドルウェアの後段に配置する。
func NewRequireUserMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := CurrentUserFromContext(r.Context()); err != nil {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
