package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/webserver/internal/tlsutil"
	"github.com/BaSui01/webserver/testutil"
	"github.com/BaSui01/webserver/types"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func localConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	return cfg
}

// --- DefaultConfig ---

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol())
}

func TestConfig_Addr(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 3000}
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())

	cfg = Config{Port: 3001}
	assert.Equal(t, ":3001", cfg.Addr())

	cfg = Config{Host: "::1", Port: 3001}
	assert.Equal(t, "[::1]:3001", cfg.Addr())
}

// --- NewManager ---

func TestNewManager(t *testing.T) {
	cfg := localConfig()
	cfg.Port = 3000
	m := NewManager(http.NewServeMux(), cfg, zap.NewNop())

	require.NotNil(t, m)
	assert.False(t, m.IsRunning())
	assert.Nil(t, m.Listener())
	assert.Equal(t, "127.0.0.1:3000", m.Addr())
	assert.Equal(t, 3000, m.Port())
}

func TestNewManager_NilLogger(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), nil)
	require.NotNil(t, m)
	assert.NoError(t, m.Shutdown(context.Background()))
}

// --- Start / Shutdown lifecycle ---

func TestManager_StartAndShutdown(t *testing.T) {
	m := NewManager(okHandler(), localConfig(), zaptest.NewLogger(t))

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	assert.True(t, m.IsRunning())
	assert.NotZero(t, m.Port())

	resp, err := http.Get("http://" + m.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	addr := m.Addr()
	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())

	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err, "port should be released after shutdown")
}

func TestManager_TLS(t *testing.T) {
	keyPEM, certPEM := testutil.SelfSignedPEM(t)
	tlsCfg, err := tlsutil.ServerTLSConfig(keyPEM, certPEM)
	require.NoError(t, err)

	cfg := localConfig()
	cfg.TLSConfig = tlsCfg
	m := NewManager(okHandler(), cfg, zap.NewNop())
	assert.Equal(t, ProtocolHTTPS, m.Protocol())

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	client := tlsutil.SecureHTTPClient(5*time.Second, true)
	resp, err := client.Get("https://" + m.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, resp.TLS)
	assert.Equal(t, 2, resp.ProtoMajor, "h2 should be negotiated")
}

func TestManager_BindError(t *testing.T) {
	_, port := testutil.OccupyPort(t)

	cfg := localConfig()
	cfg.Port = port
	m := NewManager(okHandler(), cfg, zap.NewNop())

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrBind))

	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "http", e.Protocol)
	assert.Equal(t, port, e.Port)

	assert.False(t, m.IsRunning())
	assert.Nil(t, m.Listener())
}

func TestManager_DoubleStart(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	err := m.Start(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_ShutdownWithoutStart(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())
	assert.NoError(t, m.Shutdown(context.Background()))

	_, ok := testutil.WaitForChannel(m.Errors(), 50*time.Millisecond)
	assert.False(t, ok, "errors channel stays open when serve never ran")
}

func TestManager_StartAfterShutdown(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Start(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestManager_ErrorsClosedAfterShutdown(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	err, ok := <-m.Errors()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestManager_EphemeralPortIsReported(t *testing.T) {
	m := NewManager(http.NewServeMux(), localConfig(), zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	_, portStr, err := net.SplitHostPort(m.Listener().Addr().String())
	require.NoError(t, err)
	assert.Equal(t, portStr, strconv.Itoa(m.Port()))
}
