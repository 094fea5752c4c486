package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	redirectsTotal      *prometheus.CounterVec

	// 监听器指标
	listenerUp       *prometheus.GaugeVec
	bindErrorsTotal  *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec

	// WebSocket 指标
	websocketConnections prometheus.Gauge
	websocketMessages    *prometheus.CounterVec

	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewCollector 创建指标收集器。
// reg 为 nil 时使用带 Go/进程指标的独立 Registry，避免与默认 Registry 冲突。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	factory := promauto.With(reg)
	c := &Collector{
		gatherer: gatherer,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"protocol", "method", "route", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.httpResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "route"},
	)

	c.redirectsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Total number of redirects issued",
		},
		[]string{"kind"},
	)

	// 监听器指标
	c.listenerUp = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listener_up",
			Help:      "Whether the listener is accepting connections (1) or not (0)",
		},
		[]string{"protocol", "port"},
	)

	c.bindErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bind_errors_total",
			Help:      "Total number of failed listener binds",
		},
		[]string{"protocol"},
	)

	c.stateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of server lifecycle state transitions",
		},
		[]string{"from", "to"},
	)

	// WebSocket 指标
	c.websocketConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Number of open WebSocket connections",
		},
	)

	c.websocketMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_total",
			Help:      "Total number of WebSocket messages",
		},
		[]string{"direction"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// Handler 返回暴露本收集器 Registry 的 HTTP 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(c.logger),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// 以下记录方法允许 nil 接收者，未启用指标时调用方无需判空。

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(protocol, method, route string, status int, duration time.Duration, responseSize int64) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(protocol, method, route, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	c.httpResponseSize.WithLabelValues(method, route).Observe(float64(responseSize))
}

// RecordRedirect 记录重定向，kind 为 https 或 fallback
func (c *Collector) RecordRedirect(kind string) {
	if c == nil {
		return
	}
	c.redirectsTotal.WithLabelValues(kind).Inc()
}

// =============================================================================
// 🔌 监听器指标记录
// =============================================================================

// SetListenerUp 设置监听器状态
func (c *Collector) SetListenerUp(protocol string, port int, up bool) {
	if c == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	c.listenerUp.WithLabelValues(protocol, strconv.Itoa(port)).Set(v)
}

// RecordBindError 记录绑定失败
func (c *Collector) RecordBindError(protocol string) {
	if c == nil {
		return
	}
	c.bindErrorsTotal.WithLabelValues(protocol).Inc()
}

// RecordStateTransition 记录生命周期状态转换
func (c *Collector) RecordStateTransition(from, to string) {
	if c == nil {
		return
	}
	c.stateTransitions.WithLabelValues(from, to).Inc()
}

// =============================================================================
// 💬 WebSocket 指标记录
// =============================================================================

// WebSocketOpened 记录连接建立
func (c *Collector) WebSocketOpened() {
	if c == nil {
		return
	}
	c.websocketConnections.Inc()
}

// WebSocketClosed 记录连接关闭
func (c *Collector) WebSocketClosed() {
	if c == nil {
		return
	}
	c.websocketConnections.Dec()
}

// RecordWebSocketMessage 记录消息，direction 为 in 或 out
func (c *Collector) RecordWebSocketMessage(direction string) {
	if c == nil {
		return
	}
	c.websocketMessages.WithLabelValues(direction).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
