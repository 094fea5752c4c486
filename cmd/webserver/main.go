// =============================================================================
// web-server 主入口
// =============================================================================
// 使用方法:
//
//	webserver serve                          # 启动服务
//	webserver serve --config config.yaml     # 指定配置文件
//	webserver serve --cert c.pem --key k.pem # 命令行指定证书
//	webserver health --addr https://localhost:3001 --insecure
//	webserver version
// =============================================================================

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/webserver/config"
	"github.com/BaSui01/webserver/internal/tlsutil"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "webserver",
		Usage:   "HTTP(S) server with HTTPS redirect and static files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Commands: []*cli.Command{
			serveCommand(),
			healthCommand(),
			versionCommand(),
		},
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the plaintext and TLS listeners",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file (YAML)"},
			&cli.StringFlag{Name: "host", Usage: "Bind host, empty for all interfaces"},
			&cli.IntFlag{Name: "http-port", Usage: "Plaintext port"},
			&cli.IntFlag{Name: "https-port", Usage: "TLS port"},
			&cli.StringFlag{Name: "public-dir", Usage: "Directory served as static files"},
			&cli.StringFlag{Name: "cert", Usage: "PEM certificate file"},
			&cli.StringFlag{Name: "key", Usage: "PEM private key file"},
			&cli.BoolFlag{Name: "force-https", Usage: "Redirect plaintext requests to HTTPS"},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting web-server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	srv, err := NewServer(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Run(c.Context); err != nil {
		logger.Error("web-server exited with error", zap.Error(err))
		return err
	}

	logger.Info("web-server stopped")
	return nil
}

// loadConfig 加载配置文件与环境变量，命令行参数优先级最高
func loadConfig(c *cli.Context) (*config.Config, error) {
	loader := config.NewLoader()
	if path := c.String("config"); path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("http-port") {
		cfg.Server.HTTPPort = c.Int("http-port")
	}
	if c.IsSet("https-port") {
		cfg.Server.HTTPSPort = c.Int("https-port")
	}
	if c.IsSet("public-dir") {
		cfg.Server.PublicDir = c.String("public-dir")
	}
	if c.IsSet("cert") {
		cfg.TLS.CertFile = c.String("cert")
	}
	if c.IsSet("key") {
		cfg.TLS.KeyFile = c.String("key")
	}
	if c.IsSet("force-https") {
		cfg.Server.ForceHTTPS = c.Bool("force-https")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🏥 health 命令
// =============================================================================

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check a running server's /health endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://localhost:3000", Usage: "Server base URL"},
			&cli.BoolFlag{Name: "insecure", Usage: "Skip TLS certificate verification"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "Request timeout"},
		},
		Action: func(c *cli.Context) error {
			client := tlsutil.SecureHTTPClient(c.Duration("timeout"), c.Bool("insecure"))
			if err := checkHealth(client, c.String("addr")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "OK")
			return nil
		},
	}
}

// checkHealth 请求 /health，明文端口的重定向由 client 跟随
func checkHealth(client *http.Client, addr string) error {
	resp, err := client.Get(addr + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// =============================================================================
// 📋 version 命令
// =============================================================================

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "web-server %s\n", Version)
			fmt.Fprintf(c.App.Writer, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(c.App.Writer, "  Git Commit: %s\n", GitCommit)
			return nil
		},
	}
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: true,
	}

	var opts []zap.Option
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
