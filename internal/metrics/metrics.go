// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層とサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordDBOperation(operation string, success bool, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	dbOpLatency   *prometheus.HistogramVec
	tokenReissues prometheus.Counter
	loginsTotal   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTPリクエストの合計数（メソッド・ルート・ステータスコード別）",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbOpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_db_operation_duration_seconds",
			Help:    "データベース操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "success"}),
		tokenReissues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_token_reissues_total",
			Help: "リフレッシュトークンによるアクセストークン再発行の合計数",
		}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "ログイン試行の合計数（方式・結果別）",
		}, []string{"method", "result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.dbOpLatency,
		c.tokenReissues,
		c.loginsTotal,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果とレイテンシを記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDBOperation はデータベース操作のレイテンシを記録する。
func (c *Collector) RecordDBOperation(operation string, success bool, duration time.Duration) {
	c.dbOpLatency.WithLabelValues(operation, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// RecordTokenReissue はアクセストークンの再発行を記録する。
func (c *Collector) RecordTokenReissue() {
	c.tokenReissues.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
// methodは"password"または"oauth"、resultは"success"または"failure"。
func (c *Collector) RecordLogin(method, result string) {
	c.loginsTotal.WithLabelValues(method, result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
