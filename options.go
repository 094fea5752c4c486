package webserver

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webserver/internal/server"
	"github.com/BaSui01/webserver/metrics"
)

// =============================================================================
// ⚙️ 构造选项
// =============================================================================

// 默认值
const (
	DefaultHTTPPort        = 3000
	DefaultHTTPSPort       = 3001
	DefaultForceHTTPS      = true
	DefaultStartTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Option 配置 WebServer
type Option func(*options)

type options struct {
	host       string
	httpPort   int
	httpsPort  int
	forceHTTPS bool
	publicDir  string
	keyPEM     []byte
	certPEM    []byte

	logger     Logger
	translator Translator
	zap        *zap.Logger
	metrics    *metrics.Collector

	startTimeout    time.Duration
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
}

func defaultOptions() options {
	listener := server.DefaultConfig()
	return options{
		httpPort:        DefaultHTTPPort,
		httpsPort:       DefaultHTTPSPort,
		forceHTTPS:      DefaultForceHTTPS,
		startTimeout:    DefaultStartTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		readTimeout:     listener.ReadTimeout,
		writeTimeout:    listener.WriteTimeout,
		idleTimeout:     listener.IdleTimeout,
	}
}

// WithHTTPPort 设置明文端口，0 表示由系统分配
func WithHTTPPort(port int) Option {
	return func(o *options) { o.httpPort = port }
}

// WithHTTPSPort 设置加密端口，0 表示由系统分配
func WithHTTPSPort(port int) Option {
	return func(o *options) { o.httpsPort = port }
}

// WithForceHTTPS 控制是否把明文请求重定向到 HTTPS
func WithForceHTTPS(force bool) Option {
	return func(o *options) { o.forceHTTPS = force }
}

// WithPublicDir 启用静态文件服务
func WithPublicDir(dir string) Option {
	return func(o *options) { o.publicDir = dir }
}

// WithTLS 设置 PEM 编码的私钥与证书
func WithTLS(keyPEM, certPEM []byte) Option {
	return func(o *options) {
		o.keyPEM = keyPEM
		o.certPEM = certPEM
	}
}

// WithLogger 设置日志能力，nil 表示使用控制台回退
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTranslator 设置翻译能力，nil 表示原样输出
func WithTranslator(translator Translator) Option {
	return func(o *options) { o.translator = translator }
}

// WithHost 设置绑定主机，默认所有接口
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithZapLogger 设置内部诊断日志，默认丢弃
func WithZapLogger(logger *zap.Logger) Option {
	return func(o *options) { o.zap = logger }
}

// WithMetrics 启用 Prometheus 指标
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// WithStartTimeout 限制 Start 的总时长，0 表示仅受 ctx 约束
func WithStartTimeout(d time.Duration) Option {
	return func(o *options) { o.startTimeout = d }
}

// WithShutdownTimeout 限制每个监听器的优雅关闭时长
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// WithTimeouts 设置读、写与空闲超时
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(o *options) {
		o.readTimeout = read
		o.writeTimeout = write
		o.idleTimeout = idle
	}
}
