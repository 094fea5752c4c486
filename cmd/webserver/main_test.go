package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/webserver/config"
)

// runLoadConfig 用 serve 的参数定义解析 args 并返回合并后的配置
func runLoadConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var (
		cfg *config.Config
		err error
	)
	app := &cli.App{
		Commands: []*cli.Command{{
			Name:  "serve",
			Flags: serveCommand().Flags,
			Action: func(c *cli.Context) error {
				cfg, err = loadConfig(c)
				return nil
			},
		}},
	}
	require.NoError(t, app.Run(append([]string{"webserver", "serve"}, args...)))
	return cfg, err
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := runLoadConfig(t, "--cert", "cert.pem", "--key", "key.pem")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.HTTPPort)
	assert.Equal(t, 3001, cfg.Server.HTTPSPort)
	assert.True(t, cfg.Server.ForceHTTPS)
}

func TestLoadConfig_ForceHTTPSWithoutTLS(t *testing.T) {
	_, err := runLoadConfig(t)
	assert.ErrorContains(t, err, "force_https requires")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	cfg, err := runLoadConfig(t,
		"--http-port", "8080",
		"--https-port", "8443",
		"--host", "127.0.0.1",
		"--public-dir", "./public",
		"--cert", "cert.pem",
		"--key", "key.pem",
		"--force-https=false",
	)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 8443, cfg.Server.HTTPSPort)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "./public", cfg.Server.PublicDir)
	assert.True(t, cfg.TLS.Enabled())
	assert.False(t, cfg.Server.ForceHTTPS)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	_, err := runLoadConfig(t, "--http-port", "70000")
	assert.Error(t, err)
}

func TestCheckHealth(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	assert.NoError(t, checkHealth(client, srv.URL))

	status = http.StatusServiceUnavailable
	assert.ErrorContains(t, checkHealth(client, srv.URL), "status 503")

	srv.Close()
	assert.Error(t, checkHealth(client, srv.URL))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run([]string{"webserver", "version"}))
	assert.Contains(t, out.String(), "web-server "+Version)
	assert.Contains(t, out.String(), "Git Commit: "+GitCommit)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{"json info", config.DefaultLogConfig(), zapcore.InfoLevel},
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"unknown level", config.LogConfig{Level: "loud", OutputPaths: []string{"stderr"}}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := initLogger(tt.cfg)
			require.NotNil(t, logger)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}
