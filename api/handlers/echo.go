package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/webserver/metrics"
)

// =============================================================================
// 🔁 WebSocket 回显 Handler
// =============================================================================

const defaultReadLimit = 64 << 10

// EchoHandler 升级为 WebSocket 并原样回写每条消息
type EchoHandler struct {
	logger    *zap.Logger
	collector *metrics.Collector
	origins   []string
	readLimit int64
}

// EchoOption 配置 EchoHandler
type EchoOption func(*EchoHandler)

// WithOrigins 允许的跨域 Origin 模式（path.Match 语法），为空时只接受同源
func WithOrigins(patterns ...string) EchoOption {
	return func(h *EchoHandler) { h.origins = append(h.origins, patterns...) }
}

// WithReadLimit 单条消息最大字节数
func WithReadLimit(n int64) EchoOption {
	return func(h *EchoHandler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// NewEchoHandler 创建回显处理器，collector 可以为 nil
func NewEchoHandler(logger *zap.Logger, collector *metrics.Collector, opts ...EchoOption) *EchoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &EchoHandler{
		logger:    logger.With(zap.String("component", "ws_echo")),
		collector: collector,
		readLimit: defaultReadLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		// Accept 已写出错误响应
		h.logger.Debug("websocket upgrade rejected", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	h.collector.WebSocketOpened()
	defer h.collector.WebSocketClosed()

	conn.SetReadLimit(h.readLimit)
	h.logger.Debug("websocket connected", zap.String("remote_addr", r.RemoteAddr))

	if err := h.echo(r.Context(), conn); err != nil {
		h.logger.Warn("websocket closed with error", zap.Error(err))
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *EchoHandler) echo(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if isNormalClose(err) {
				return nil
			}
			return err
		}
		h.collector.RecordWebSocketMessage("in")

		if err := conn.Write(ctx, typ, data); err != nil {
			return err
		}
		h.collector.RecordWebSocketMessage("out")
	}
}

func isNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
