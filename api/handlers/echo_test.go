package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/webserver/metrics"
)

func echoServer(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// gathered 返回指定指标（可按单个标签过滤）的值之和
func gathered(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && !hasLabel(m, label, value) {
				continue
			}
			sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return sum
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestEchoHandler_RoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("ws", reg, zaptest.NewLogger(t))
	url := echoServer(t, NewEchoHandler(zaptest.NewLogger(t), collector))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	for _, msg := range []string{"hello", "world"} {
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(msg)))
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)
		assert.Equal(t, msg, string(data))
	}

	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02}))
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	assert.Equal(t, float64(3), gathered(t, reg, "ws_websocket_messages_total", "direction", "in"))
	assert.Equal(t, float64(3), gathered(t, reg, "ws_websocket_messages_total", "direction", "out"))
	assert.Equal(t, float64(1), gathered(t, reg, "ws_websocket_connections", "", ""))
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	// 连接关闭后 gauge 归零
	require.Eventually(t, func() bool {
		return gathered(t, reg, "ws_websocket_connections", "", "") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEchoHandler_ReadLimit(t *testing.T) {
	url := echoServer(t, NewEchoHandler(nil, nil, WithReadLimit(8)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("this message is too long")))
	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusMessageTooBig, websocket.CloseStatus(err))
}

func TestEchoHandler_RejectsPlainRequest(t *testing.T) {
	w := httptest.NewRecorder()
	NewEchoHandler(nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
}

func TestEchoHandler_RejectsForeignOrigin(t *testing.T) {
	url := echoServer(t, NewEchoHandler(nil, nil, WithOrigins("trusted.example")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
