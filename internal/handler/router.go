package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/middleware"
)

// Pinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterMetrics はルーターが必要とするメトリクス記録のインターフェース。
type RouterMetrics interface {
	middleware.HTTPMetrics
	middleware.ReissueMetrics
	LoginMetrics
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	TokenReissuer     middleware.TokenReissuer
	SessionConfig     middleware.SessionMiddlewareConfig
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// サービス
	UserService    UserServiceInterface
	SessionService SessionServiceInterface
	ProductService ProductServiceInterface

	SessionHandlerConfig SessionHandlerConfig

	// 運用系
	Metrics        RouterMetrics
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Session → Logging
//
// Sessionミドルウェアは全ルートに適用されるが、認証を強制しない。
// 認証が必要なルートにはRequireUserを追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSessionMiddleware(deps.TokenVerifier, deps.TokenReissuer, deps.Metrics, deps.SessionConfig))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	requireUser := middleware.NewRequireUserMiddleware()

	userHandler := NewUserHandler(deps.UserService)
	sessionHandler := NewSessionHandler(deps.SessionService, deps.Metrics, deps.SessionHandlerConfig)
	productHandler := NewProductHandler(deps.ProductService)

	// --- 運用系のルート ---

	r.Get("/health", newHealthHandler(deps.DB))

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---

	// ユーザー登録とログインは未認証で叩かれるため、IP単位のレート制限を適用する
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/users", userHandler.CreateUser)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/sessions", sessionHandler.CreateSession)

	// Google OAuthコールバック（Googleからのリダイレクトを受ける）
	r.Get("/api/sessions/oauth/google", sessionHandler.GoogleOAuthCallback)

	// 商品詳細は未認証でも閲覧できる
	r.Get("/api/products/{productId}", productHandler.GetProduct)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequireUser → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/me", userHandler.Me)

		r.Get("/api/sessions", sessionHandler.ListSessions)
		r.Delete("/api/sessions", sessionHandler.DeleteSession)

		r.Post("/api/products", productHandler.CreateProduct)
		r.Put("/api/products/{productId}", productHandler.UpdateProduct)
		r.Delete("/api/products/{productId}", productHandler.DeleteProduct)
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}

		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
