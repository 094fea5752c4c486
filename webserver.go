package webserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/webserver/internal/server"
	"github.com/BaSui01/webserver/internal/tlsutil"
	"github.com/BaSui01/webserver/middleware"
	"github.com/BaSui01/webserver/types"
)

// 需要翻译的日志消息
const (
	MsgInitialized     = "Initialized"
	MsgHTTPListening   = "http server is listening at port"
	MsgHTTPSListening  = "https server is listening at port"
	MsgHTTPClosed      = "http server is closed"
	MsgHTTPSClosed     = "https server is closed"
	MsgHTTPBindFailed  = "http server failed to bind port"
	MsgHTTPSBindFailed = "https server failed to bind port"
)

// =============================================================================
// 🔄 生命周期状态
// =============================================================================

// State 生命周期状态
type State int

const (
	StateUnstarted State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// =============================================================================
// 🌐 WebServer
// =============================================================================

// WebServer 管理共享同一个 App 的明文与加密监听器。
// 明文监听器总是先绑定；加密监听器只在明文绑定成功后才尝试绑定。
type WebServer struct {
	opts       options
	app        *App
	tlsConfig  *tls.Config
	logger     Logger
	translator Translator
	zap        *zap.Logger

	mu     sync.RWMutex
	state  State
	plain  *server.Manager
	secure *server.Manager

	errCh chan error
}

// New 构建 WebServer。
// forceHTTPS（默认开启）要求 WithTLS 提供有效的密钥与证书，否则返回 CONFIG 错误。
func New(opts ...Option) (*WebServer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := validatePorts(o.httpPort, o.httpsPort); err != nil {
		return nil, err
	}

	ws := &WebServer{
		opts:       o,
		app:        NewApp(),
		logger:     o.logger,
		translator: o.translator,
		zap:        o.zap,
		errCh:      make(chan error, 2),
	}
	if ws.logger == nil {
		ws.logger = defaultLogger()
	}
	if ws.translator == nil {
		ws.translator = passthrough{}
	}
	if ws.zap == nil {
		ws.zap = zap.NewNop()
	}
	ws.zap = ws.zap.With(zap.String("component", ModuleName))

	if len(o.keyPEM) > 0 || len(o.certPEM) > 0 {
		tlsConfig, err := tlsutil.ServerTLSConfig(o.keyPEM, o.certPEM)
		if err != nil {
			return nil, types.NewConfigError("invalid tls key or certificate", err)
		}
		ws.tlsConfig = tlsConfig
	}
	if o.forceHTTPS && ws.tlsConfig == nil {
		return nil, types.NewConfigError("forceHttps requires a tls key and certificate", tlsutil.ErrMissingMaterial)
	}

	if o.forceHTTPS {
		ws.app.Use(middleware.HTTPSRedirectFunc(ws.HTTPSPort,
			middleware.OnRedirect(func(r *http.Request, target string) {
				ws.opts.metrics.RecordRedirect("https")
				ws.zap.Debug("redirecting to https", zap.String("from", r.Host+r.URL.RequestURI()), zap.String("to", target))
			}),
		))
	}
	if o.publicDir != "" {
		ws.app.Static(o.publicDir)
	}
	ws.app.NotFound(middleware.Fallback(func(r *http.Request) {
		ws.opts.metrics.RecordRedirect("fallback")
	}))

	ws.log(LevelInfo, ws.translate(MsgInitialized))
	ws.zap.Info("initialized",
		zap.Int("http_port", o.httpPort),
		zap.Int("https_port", o.httpsPort),
		zap.Bool("force_https", o.forceHTTPS),
		zap.Bool("tls", ws.tlsConfig != nil),
		zap.String("public_dir", o.publicDir),
	)

	return ws, nil
}

func validatePorts(httpPort, httpsPort int) error {
	if httpPort < 0 || httpPort > 65535 {
		return types.NewConfigError(fmt.Sprintf("invalid http port %d", httpPort), nil)
	}
	if httpsPort < 0 || httpsPort > 65535 {
		return types.NewConfigError(fmt.Sprintf("invalid https port %d", httpsPort), nil)
	}
	if httpPort != 0 && httpPort == httpsPort {
		return types.NewConfigError(fmt.Sprintf("http and https ports must differ (both %d)", httpPort), nil)
	}
	return nil
}

// =============================================================================
// 🎯 生命周期
// =============================================================================

// Start 先绑定明文监听器，成功后再绑定加密监听器（若配置了 TLS）。
// 两个监听器都绑定后才返回 nil；任一绑定失败时已绑定的监听器会被关闭，
// 实例回到调用前的状态。
func (ws *WebServer) Start(ctx context.Context) error {
	ws.mu.Lock()
	if ws.state != StateUnstarted && ws.state != StateStopped {
		state := ws.state
		ws.mu.Unlock()
		return types.NewAlreadyRunningError(state.String())
	}
	prev := ws.state
	ws.setStateLocked(StateStarting)
	ws.drainErrorsLocked()
	ws.mu.Unlock()

	if ws.opts.startTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ws.opts.startTimeout)
		defer cancel()
	}

	plain, secure, err := ws.bind(ctx)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if err != nil {
		ws.plain, ws.secure = nil, nil
		ws.setStateLocked(prev)
		return err
	}

	ws.plain, ws.secure = plain, secure
	ws.setStateLocked(StateRunning)

	ws.forwardErrors(plain)
	if secure != nil {
		ws.forwardErrors(secure)
	}
	return nil
}

func (ws *WebServer) bind(ctx context.Context) (plain, secure *server.Manager, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, types.NewTimeoutError("start", err)
	}

	plain = server.NewManager(ws.app, ws.listenerConfig(ws.opts.httpPort, nil), ws.zap)
	if err := plain.Start(ctx); err != nil {
		return nil, nil, ws.bindFailed(ctx, server.ProtocolHTTP, ws.opts.httpPort, err)
	}

	// 启动期间访问器即可看到已绑定的监听器
	ws.mu.Lock()
	ws.plain = plain
	ws.mu.Unlock()

	ws.opts.metrics.SetListenerUp(string(server.ProtocolHTTP), plain.Port(), true)
	ws.log(LevelInfo, ws.translate(MsgHTTPListening)+" "+strconv.Itoa(plain.Port()))

	if ws.tlsConfig == nil {
		return plain, nil, nil
	}

	if err := ctx.Err(); err != nil {
		ws.abort(plain)
		return nil, nil, types.NewTimeoutError("start", err)
	}

	secure = server.NewManager(ws.app, ws.listenerConfig(ws.opts.httpsPort, ws.tlsConfig), ws.zap)
	if err := secure.Start(ctx); err != nil {
		ws.abort(plain)
		return nil, nil, ws.bindFailed(ctx, server.ProtocolHTTPS, ws.opts.httpsPort, err)
	}

	ws.mu.Lock()
	ws.secure = secure
	ws.mu.Unlock()

	ws.opts.metrics.SetListenerUp(string(server.ProtocolHTTPS), secure.Port(), true)
	ws.log(LevelInfo, ws.translate(MsgHTTPSListening)+" "+strconv.Itoa(secure.Port()))

	return plain, secure, nil
}

func (ws *WebServer) bindFailed(ctx context.Context, protocol server.Protocol, port int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.NewTimeoutError("start", errors.Join(ctxErr, err))
	}

	ws.opts.metrics.RecordBindError(string(protocol))
	msg := MsgHTTPBindFailed
	if protocol == server.ProtocolHTTPS {
		msg = MsgHTTPSBindFailed
	}
	ws.log(LevelError, ws.translate(msg)+" "+strconv.Itoa(port))
	ws.zap.Error("bind failed", zap.String("protocol", string(protocol)), zap.Int("port", port), zap.Error(err))
	return err
}

// abort 关闭启动过程中已绑定的明文监听器
func (ws *WebServer) abort(plain *server.Manager) {
	port := plain.Port()
	if err := plain.Shutdown(context.Background()); err != nil {
		ws.zap.Warn("failed to release http listener", zap.Error(err))
	}
	ws.opts.metrics.SetListenerUp(string(server.ProtocolHTTP), port, false)
}

// Stop 依次优雅关闭明文与加密监听器，两者都完成后返回。
// 未处于 running 状态时返回 NOT_RUNNING。
func (ws *WebServer) Stop(ctx context.Context) error {
	ws.mu.Lock()
	if ws.state != StateRunning {
		state := ws.state
		ws.mu.Unlock()
		return types.NewNotRunningError(state.String())
	}
	ws.setStateLocked(StateStopping)
	plain, secure := ws.plain, ws.secure
	ws.mu.Unlock()

	var errs []error
	if plain != nil {
		errs = append(errs, ws.shutdown(ctx, plain, MsgHTTPClosed))
	}
	if secure != nil {
		errs = append(errs, ws.shutdown(ctx, secure, MsgHTTPSClosed))
	}

	ws.mu.Lock()
	ws.plain, ws.secure = nil, nil
	ws.setStateLocked(StateStopped)
	ws.mu.Unlock()

	return errors.Join(errs...)
}

func (ws *WebServer) shutdown(ctx context.Context, m *server.Manager, msg string) error {
	port := m.Port()
	err := m.Shutdown(ctx)
	ws.opts.metrics.SetListenerUp(string(m.Protocol()), port, false)
	if err != nil {
		ws.log(LevelError, ws.translate(msg)+": "+err.Error())
		return err
	}
	ws.log(LevelWarn, ws.translate(msg))
	return nil
}

// forwardErrors 把监听器的异步服务错误转发到 Errors()
func (ws *WebServer) forwardErrors(m *server.Manager) {
	go func() {
		for err := range m.Errors() {
			select {
			case ws.errCh <- err:
			default:
				ws.zap.Error("dropped listener error", zap.String("protocol", string(m.Protocol())), zap.Error(err))
			}
		}
	}()
}

// drainErrorsLocked 丢弃上一轮运行遗留、未被读取的服务错误
func (ws *WebServer) drainErrorsLocked() {
	for {
		select {
		case err := <-ws.errCh:
			ws.zap.Debug("discarding error from previous run", zap.Error(err))
		default:
			return
		}
	}
}

func (ws *WebServer) setStateLocked(s State) {
	if ws.state == s {
		return
	}
	ws.opts.metrics.RecordStateTransition(ws.state.String(), s.String())
	ws.zap.Debug("state transition", zap.Stringer("from", ws.state), zap.Stringer("to", s))
	ws.state = s
}

func (ws *WebServer) listenerConfig(port int, tlsConfig *tls.Config) server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = ws.opts.host
	cfg.Port = port
	cfg.ReadTimeout = ws.opts.readTimeout
	cfg.WriteTimeout = ws.opts.writeTimeout
	cfg.IdleTimeout = ws.opts.idleTimeout
	cfg.ShutdownTimeout = ws.opts.shutdownTimeout
	cfg.TLSConfig = tlsConfig
	return cfg
}

func (ws *WebServer) log(level Level, message string) {
	ws.logger.Log(ModuleName, level, message)
}

func (ws *WebServer) translate(message string) string {
	return ws.translator.Translate(message)
}

// =============================================================================
// 🔍 访问器
// =============================================================================

// App 返回共享的请求处理应用
func (ws *WebServer) App() *App {
	return ws.app
}

// HTTPListener 返回明文监听器，未运行时为 nil
func (ws *WebServer) HTTPListener() net.Listener {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.plain == nil {
		return nil
	}
	return ws.plain.Listener()
}

// HTTPSListener 返回加密监听器，未运行或未配置 TLS 时为 nil
func (ws *WebServer) HTTPSListener() net.Listener {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.secure == nil {
		return nil
	}
	return ws.secure.Listener()
}

// HTTPPort 返回明文端口；运行中返回实际绑定端口
func (ws *WebServer) HTTPPort() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.plain != nil {
		return ws.plain.Port()
	}
	return ws.opts.httpPort
}

// HTTPSPort 返回加密端口；运行中返回实际绑定端口
func (ws *WebServer) HTTPSPort() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.secure != nil {
		return ws.secure.Port()
	}
	return ws.opts.httpsPort
}

// ForceHTTPS 是否强制 HTTPS
func (ws *WebServer) ForceHTTPS() bool {
	return ws.opts.forceHTTPS
}

// PublicDir 返回静态文件目录，未启用时为空
func (ws *WebServer) PublicDir() string {
	return ws.opts.publicDir
}

// TLSEnabled 是否配置了 TLS
func (ws *WebServer) TLSEnabled() bool {
	return ws.tlsConfig != nil
}

// State 返回当前生命周期状态
func (ws *WebServer) State() State {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

// Errors 返回监听器的异步服务错误。通道在实例生命周期内不会关闭，
// 每次 Start 会清空上一轮未读取的错误。
func (ws *WebServer) Errors() <-chan error {
	return ws.errCh
}

// String 返回实例摘要
func (ws *WebServer) String() string {
	publicDir := ws.opts.publicDir
	if publicDir == "" {
		publicDir = "none"
	}
	logger := "no"
	if ws.opts.logger != nil {
		logger = "yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", ModuleName)
	fmt.Fprintf(&b, "\tstate: %s\n", ws.State())
	fmt.Fprintf(&b, "\tlogger: %s\n", logger)
	fmt.Fprintf(&b, "\thttpPort: %d\n", ws.HTTPPort())
	fmt.Fprintf(&b, "\thttpsPort: %d\n", ws.HTTPSPort())
	fmt.Fprintf(&b, "\tforceHttps: %t\n", ws.opts.forceHTTPS)
	fmt.Fprintf(&b, "\tpublicDir: %s\n", publicDir)
	return b.String()
}
