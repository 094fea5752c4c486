package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/BaSui01/webserver/types"
)

// =============================================================================
// 🌐 单监听器管理器
// =============================================================================

// Protocol 监听器协议
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

// Manager 管理一个 http.Server 与其监听器。
// Manager 只能启动一次，Shutdown 后需重新创建。
type Manager struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	done     chan struct{}
	config   Config
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

// Config 监听器配置
type Config struct {
	// 绑定主机，空表示所有接口
	Host string `yaml:"host" json:"host"`

	// 端口，0 表示由系统分配
	Port int `yaml:"port" json:"port"`

	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`

	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// 空闲超时
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`

	// 最大请求头大小
	MaxHeaderBytes int `yaml:"max_header_bytes" json:"max_header_bytes"`

	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// 非空时以 TLS 提供服务
	TLSConfig *tls.Config `yaml:"-" json:"-"`
}

// DefaultConfig 返回默认监听器配置
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: 15 * time.Second,
	}
}

// Protocol 根据是否配置 TLS 返回协议
func (c Config) Protocol() Protocol {
	if c.TLSConfig != nil {
		return ProtocolHTTPS
	}
	return ProtocolHTTP
}

// Addr 返回 host:port 形式的绑定地址
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewManager 创建监听器管理器
func NewManager(handler http.Handler, config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &http.Server{
		Handler:        handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return &Manager{
		server: server,
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
		config: config,
		logger: logger.With(
			zap.String("component", "listener"),
			zap.String("protocol", string(config.Protocol())),
		),
	}
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Start 同步绑定端口，然后在后台提供服务。
// 绑定失败返回 BIND 错误，此时没有任何端口被占用。
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%s listener is closed", m.config.Protocol())
	}
	if m.listener != nil {
		return fmt.Errorf("%s listener already started", m.config.Protocol())
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", m.config.Addr())
	if err != nil {
		return types.NewBindError(string(m.config.Protocol()), m.config.Port, err)
	}

	if m.config.TLSConfig != nil {
		m.server.TLSConfig = m.config.TLSConfig.Clone()
		if err := http2.ConfigureServer(m.server, &http2.Server{IdleTimeout: m.config.IdleTimeout}); err != nil {
			listener.Close()
			return types.NewConfigError("failed to enable http2", err)
		}
		listener = tls.NewListener(listener, m.server.TLSConfig)
	}

	m.listener = listener
	m.logger.Info("listener bound", zap.String("addr", listener.Addr().String()))

	go m.serve(listener)

	return nil
}

func (m *Manager) serve(listener net.Listener) {
	defer close(m.done)
	defer close(m.errCh)

	if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error("listener failed", zap.Error(err))
		select {
		case m.errCh <- err:
		default:
		}
	}
}

// Shutdown 优雅关闭监听器并等待服务协程退出。重复调用返回 nil。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.listener == nil {
		return nil
	}

	m.logger.Info("shutting down listener")

	shutdownCtx := ctx
	if m.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, m.config.ShutdownTimeout)
		defer cancel()
	}

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("graceful shutdown failed, forcing close", zap.Error(err))
		_ = m.server.Close()
		<-m.done
		return types.NewShutdownError(string(m.config.Protocol()), m.port(), err)
	}
	<-m.done

	m.logger.Info("listener stopped")
	return nil
}

// Errors 返回异步服务错误，服务协程退出后通道关闭。
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// =============================================================================
// 🔧 辅助方法
// =============================================================================

// Listener 返回已绑定的监听器，未启动时为 nil
func (m *Manager) Listener() net.Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listener
}

// Addr 返回实际监听地址，未启动时返回配置地址
func (m *Manager) Addr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return m.config.Addr()
}

// Port 返回实际绑定端口，未启动时返回配置端口
func (m *Manager) Port() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.port()
}

func (m *Manager) port() int {
	if m.listener != nil {
		if addr, ok := m.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return m.config.Port
}

// Protocol 返回监听器协议
func (m *Manager) Protocol() Protocol {
	return m.config.Protocol()
}

// IsRunning 检查监听器是否已绑定且未关闭
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listener != nil && !m.closed
}
