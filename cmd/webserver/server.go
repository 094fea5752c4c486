package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/webserver"
	"github.com/BaSui01/webserver/api/handlers"
	"github.com/BaSui01/webserver/config"
	"github.com/BaSui01/webserver/internal/telemetry"
	"github.com/BaSui01/webserver/internal/tlsutil"
	"github.com/BaSui01/webserver/metrics"
	"github.com/BaSui01/webserver/middleware"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 把配置、可观测性组件与 WebServer 组装在一起
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	ws        *webserver.WebServer
	collector *metrics.Collector
	telemetry *telemetry.Providers
	health    *handlers.HealthHandler

	// 限流器后台清理的生命周期
	rateLimiterCancel context.CancelFunc
}

// NewServer 构建 WebServer 并挂载中间件与路由，不绑定端口
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	providers, err := telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.telemetry = providers

	if cfg.Metrics.Enabled {
		s.collector = metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)
	}

	opts, err := s.options()
	if err != nil {
		return nil, err
	}
	ws, err := webserver.New(opts...)
	if err != nil {
		return nil, err
	}
	s.ws = ws

	s.installMiddleware()
	s.installRoutes()
	return s, nil
}

func (s *Server) options() ([]webserver.Option, error) {
	sc := s.cfg.Server
	opts := []webserver.Option{
		webserver.WithHost(sc.Host),
		webserver.WithHTTPPort(sc.HTTPPort),
		webserver.WithHTTPSPort(sc.HTTPSPort),
		webserver.WithForceHTTPS(sc.ForceHTTPS),
		webserver.WithPublicDir(sc.PublicDir),
		webserver.WithLogger(webserver.NewZapLogger(s.logger)),
		webserver.WithZapLogger(s.logger),
		webserver.WithMetrics(s.collector),
		webserver.WithStartTimeout(sc.StartTimeout),
		webserver.WithShutdownTimeout(sc.ShutdownTimeout),
		webserver.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.IdleTimeout),
	}

	if s.cfg.TLS.Enabled() {
		keyPEM, certPEM, err := tlsutil.LoadPEM(s.cfg.TLS.KeyFile, s.cfg.TLS.CertFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, webserver.WithTLS(keyPEM, certPEM))
	}

	if s.cfg.I18n.Locale != "" {
		tr, err := webserver.NewCatalogTranslator(s.cfg.I18n.Locale, s.cfg.I18n.Messages)
		if err != nil {
			return nil, fmt.Errorf("build translator: %w", err)
		}
		opts = append(opts, webserver.WithTranslator(tr))
	}
	return opts, nil
}

// =============================================================================
// 🔗 中间件与路由
// =============================================================================

// installMiddleware 追加在 HTTPS 重定向之后，静态文件同样经过这些中间件
func (s *Server) installMiddleware() {
	app := s.ws.App()
	app.Use(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.OTelTracing(),
		middleware.RequestLogger(s.logger),
	)
	if s.collector != nil {
		app.Use(middleware.Metrics(s.collector))
	}
	if rps := s.cfg.Server.RateLimitRPS; rps > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.rateLimiterCancel = cancel
		app.Use(middleware.RateLimiter(ctx, float64(rps), s.cfg.Server.RateLimitBurst, s.logger))
	}
}

func (s *Server) installRoutes() {
	s.health = handlers.NewHealthHandler(s.logger)
	s.health.RegisterCheck(handlers.NewListenerHealthCheck("http", s.ws.HTTPListener))
	if s.ws.TLSEnabled() {
		s.health.RegisterCheck(handlers.NewListenerHealthCheck("https", s.ws.HTTPSListener))
	}

	r := s.ws.App().Router()
	r.Get("/health", s.health.HandleHealth)
	r.Get("/healthz", s.health.HandleHealthz)
	r.Get("/ready", s.health.HandleReady)
	r.Get("/readyz", s.health.HandleReady)
	r.Get("/version", s.health.HandleVersion(Version, BuildTime, GitCommit))

	if s.collector != nil {
		r.Handle(s.cfg.Metrics.Path, s.collector.Handler())
	}
	r.Handle("/ws", handlers.NewEchoHandler(s.logger, s.collector,
		handlers.WithOrigins(s.cfg.Server.WebSocketOrigins...)))
}

// =============================================================================
// 🚀 运行与关闭
// =============================================================================

// Run 启动监听器并阻塞到收到 SIGINT/SIGTERM、ctx 结束或监听器出错，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.ws.Start(ctx); err != nil {
		s.cleanup()
		return err
	}
	s.logger.Info("web-server started",
		zap.Int("http_port", s.ws.HTTPPort()),
		zap.Int("https_port", s.ws.HTTPSPort()),
		zap.Bool("tls", s.ws.TLSEnabled()),
	)

	err := s.wait(ctx)
	s.cleanup()
	return err
}

// wait 在收到信号或监听器出错后关闭 WebServer
func (s *Server) wait(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-s.ws.Errors():
			return fmt.Errorf("listener failed: %w", err)
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("starting graceful shutdown")
		return s.ws.Stop(context.Background())
	})

	return g.Wait()
}

func (s *Server) cleanup() {
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown error", zap.Error(err))
	}
}
