package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics はHTTPリクエストのメトリクスを記録する。
type HTTPMetrics interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// NewMetricsMiddleware はリクエストごとにカウンターとレイテンシヒストグラムを
// 記録するミドルウェアを返す。ルートラベルにはパスパラメータを含む
// 実パスではなく、chiのルートパターンを使用する（カーディナリティ抑制のため）。
func NewMetricsMiddleware(metrics HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			metrics.RecordHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}
