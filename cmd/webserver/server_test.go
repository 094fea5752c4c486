package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/webserver"
	"github.com/BaSui01/webserver/api/handlers"
	"github.com/BaSui01/webserver/config"
	"github.com/BaSui01/webserver/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	keyFile, certFile := testutil.WriteSelfSignedFiles(t)

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.HTTPPort = 0
	cfg.Server.HTTPSPort = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.TLS.KeyFile = keyFile
	cfg.TLS.CertFile = certFile
	cfg.Metrics.Namespace = "cli_test"
	return cfg
}

// startServer 在后台运行 Server，返回等待 Run 结束的 channel
func startServer(t *testing.T, cfg *config.Config) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	srv, err := NewServer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	testutil.AssertEventuallyTrue(t, func() bool {
		return srv.ws.State() == webserver.StateRunning
	}, 5*time.Second)

	t.Cleanup(cancel)
	return srv, cancel, done
}

func secureURL(srv *Server, path string) string {
	return "https://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(srv.ws.HTTPSPort())) + path
}

func TestServer_RoutesAndShutdown(t *testing.T) {
	srv, cancel, done := startServer(t, testConfig(t))
	client := testutil.NoRedirectClient()

	resp, err := client.Get(secureURL(srv, "/health"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))

	resp, err = client.Get(secureURL(srv, "/ready"))
	require.NoError(t, err)
	var status handlers.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pass", status.Checks["http"].Status)
	assert.Equal(t, "pass", status.Checks["https"].Status)

	resp, err = client.Get(secureURL(srv, "/metrics"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "cli_test_listener_up")

	// 明文端口重定向到 HTTPS
	resp, err = client.Get("http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(srv.ws.HTTPPort())) + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	cancel()
	err, ok := testutil.WaitForChannel(done, 10*time.Second)
	require.True(t, ok, "Run did not return after cancel")
	assert.NoError(t, err)
	assert.Equal(t, webserver.StateStopped, srv.ws.State())
}

func TestServer_WebSocketEcho(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.ForceHTTPS = false
	srv, _, _ := startServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(srv.ws.HTTPPort())) + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("ping")))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))
}

func TestServer_StaticFilesPassThroughMiddleware(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o600))

	cfg := testConfig(t)
	cfg.Server.PublicDir = dir
	cfg.Server.RateLimitRPS = 1
	cfg.Server.RateLimitBurst = 1
	srv, _, _ := startServer(t, cfg)
	client := testutil.NoRedirectClient()

	resp, err := client.Get(secureURL(srv, "/style.css"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body{}", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = client.Get(secureURL(srv, "/style.css"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestNewServer_InvalidTLSFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.TLS.KeyFile = cfg.TLS.KeyFile + ".missing"

	_, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewServer_Translator(t *testing.T) {
	cfg := testConfig(t)
	cfg.I18n.Locale = "not a locale!"

	_, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "translator")
}
