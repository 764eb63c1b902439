package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 订单业务指标
	orderTransitionsTotal *prometheus.CounterVec
	captureAttemptsTotal  *prometheus.CounterVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec
}

var (
	globalCollector *Collector
	once            sync.Once
)

// GetGlobalCollector 获取全局指标收集器
func GetGlobalCollector() *Collector {
	once.Do(func() {
		globalCollector = newCollector()
	})
	return globalCollector
}

func newCollector() *Collector {
	return &Collector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		orderTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_transitions_total",
				Help: "Total number of order status transitions",
			},
			[]string{"from", "to"},
		),
		captureAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_capture_attempts_total",
				Help: "Total number of payment capture attempts by outcome",
			},
			[]string{"outcome"},
		),
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (c *Collector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordOrderTransition 记录订单状态流转
func (c *Collector) RecordOrderTransition(from, to string) {
	c.orderTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordCaptureAttempt 记录支付确认结果
func (c *Collector) RecordCaptureAttempt(outcome string) {
	c.captureAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cache string) {
	c.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cache string) {
	c.cacheMissesTotal.WithLabelValues(cache).Inc()
}
