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
// トランスポートクライアント・認証・リゾルバーから利用する。
type MetricsCollector interface {
	RecordBackendRequest(statusCode int)
	RecordBackendLatency(duration time.Duration)
	RecordTokenRefresh(success bool)
	RecordPagesFetched(count int)
	RecordResolverOutcome(kind string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	backendRequests *prometheus.CounterVec
	backendLatency  prometheus.Histogram
	tokenRefresh    *prometheus.CounterVec
	pagesFetched    prometheus.Counter
	resolverOutcome *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynabridge_backend_request_total",
			Help: "HTTPステータスコード別のバックエンドリクエスト数",
		}, []string{"status_code"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dynabridge_backend_latency_seconds",
			Help:    "バックエンドリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynabridge_token_refresh_total",
			Help: "結果別のトークン更新の合計数",
		}, []string{"result"}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dynabridge_pages_fetched_total",
			Help: "ページネーション収集で取得したページの合計数",
		}),
		resolverOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynabridge_resolver_outcome_total",
			Help: "種別別のエンティティ解決結果数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.backendRequests,
		c.backendLatency,
		c.tokenRefresh,
		c.pagesFetched,
		c.resolverOutcome,
	)

	return c
}

// RecordBackendRequest はバックエンドリクエストのステータスコードを記録する。
func (c *Collector) RecordBackendRequest(statusCode int) {
	c.backendRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordBackendLatency はバックエンドリクエストのレイテンシを記録する。
func (c *Collector) RecordBackendLatency(duration time.Duration) {
	c.backendLatency.Observe(duration.Seconds())
}

// RecordTokenRefresh はトークン更新の結果を記録する。
func (c *Collector) RecordTokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.tokenRefresh.WithLabelValues(result).Inc()
}

// RecordPagesFetched は収集したページ数を記録する。
func (c *Collector) RecordPagesFetched(count int) {
	c.pagesFetched.Add(float64(count))
}

// RecordResolverOutcome はエンティティ解決結果の種別を記録する。
func (c *Collector) RecordResolverOutcome(kind string) {
	c.resolverOutcome.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
