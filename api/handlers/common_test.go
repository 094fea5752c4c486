package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/webserver/middleware"
	"github.com/BaSui01/webserver/types"
)

// =============================================================================
// 🧪 Common 函数测试
// =============================================================================

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		wantStatus int
	}{
		{
			name:       "simple object",
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "array with custom status",
			data:       []int{1, 2, 3},
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.wantStatus, tt.data)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestWriteSuccess_CarriesRequestID(t *testing.T) {
	var resp Response
	h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, r, map[string]string{"key": "value"})
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
	assert.NotEmpty(t, resp.RequestID)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		err            *types.Error
		expectedStatus int
		expectedCode   types.ErrorCode
	}{
		{
			name:           "bind",
			err:            types.NewBindError("http", 3000, errors.New("address already in use")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   types.ErrBind,
		},
		{
			name:           "not running",
			err:            types.NewNotRunningError("stopped"),
			expectedStatus: http.StatusConflict,
			expectedCode:   types.ErrNotRunning,
		},
		{
			name:           "timeout",
			err:            types.NewTimeoutError("start", nil),
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   types.ErrTimeout,
		},
		{
			name:           "config without explicit status",
			err:            types.NewError(types.ErrConfig, "missing tls material"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   types.ErrConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			WriteError(w, r, tt.err, zap.New(core))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.expectedCode), resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
			assert.Equal(t, 1, logs.FilterField(zap.String("code", string(tt.expectedCode))).Len())
		})
	}
}

func TestWriteError_ListenerFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, nil, types.NewBindError("https", 3001, errors.New("eaddrinuse")), nil)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "https", resp.Error.Protocol)
	assert.Equal(t, 3001, resp.Error.Port)
	assert.True(t, resp.Error.Retryable)
}

func TestWriteErrorMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorMessage(w, nil, http.StatusTeapot, types.ErrConfig, "nope", zap.NewNop())

	assert.Equal(t, http.StatusTeapot, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "nope", resp.Error.Message)
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code       types.ErrorCode
		wantStatus int
	}{
		{types.ErrConfig, http.StatusInternalServerError},
		{types.ErrBind, http.StatusServiceUnavailable},
		{types.ErrNotRunning, http.StatusConflict},
		{types.ErrAlreadyRunning, http.StatusConflict},
		{types.ErrTimeout, http.StatusGatewayTimeout},
		{types.ErrShutdown, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError}, // 默认
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, mapErrorCodeToHTTPStatus(tt.code))
		})
	}
}
