package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the server.
type ErrorCode string

// Lifecycle error codes
const (
	// ErrConfig 配置错误（TLS 材料缺失或无效），构造时同步返回
	ErrConfig ErrorCode = "CONFIG"
	// ErrBind 监听端口绑定失败，携带端口与底层 OS 错误
	ErrBind ErrorCode = "BIND"
	// ErrNotRunning 在没有运行中监听器时调用 Stop
	ErrNotRunning ErrorCode = "NOT_RUNNING"
	// ErrAlreadyRunning 在运行中（或启动/停止过程中）再次调用 Start
	ErrAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	// ErrTimeout 启动或关闭超时
	ErrTimeout ErrorCode = "TIMEOUT"
	// ErrShutdown 优雅关闭失败
	ErrShutdown ErrorCode = "SHUTDOWN"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Protocol   string    `json:"protocol,omitempty"`
	Port       int       `json:"port,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithListener records which listener (protocol + port) the error belongs to.
func (e *Error) WithListener(protocol string, port int) *Error {
	e.Protocol = protocol
	e.Port = port
	return e
}

// =============================================================================
// 🔧 常用错误构造
// =============================================================================

// NewConfigError 配置错误，不可重试
func NewConfigError(message string, cause error) *Error {
	return NewError(ErrConfig, message).
		WithCause(cause).
		WithHTTPStatus(http.StatusInternalServerError)
}

// NewBindError 端口绑定失败。端口占用通常是暂时性的，因此标记为可重试，
// 但是否重试由调用方决定。
func NewBindError(protocol string, port int, cause error) *Error {
	return NewError(ErrBind, fmt.Sprintf("%s listener failed to bind port %d", protocol, port)).
		WithCause(cause).
		WithListener(protocol, port).
		WithRetryable(true).
		WithHTTPStatus(http.StatusServiceUnavailable)
}

// NewNotRunningError Stop 调用时没有运行中的监听器
func NewNotRunningError(state string) *Error {
	return NewError(ErrNotRunning, fmt.Sprintf("server is not running (state: %s)", state)).
		WithHTTPStatus(http.StatusConflict)
}

// NewAlreadyRunningError Start 调用时实例已在运行
func NewAlreadyRunningError(state string) *Error {
	return NewError(ErrAlreadyRunning, fmt.Sprintf("server already started (state: %s)", state)).
		WithHTTPStatus(http.StatusConflict)
}

// NewTimeoutError 启动/关闭超时
func NewTimeoutError(operation string, cause error) *Error {
	return NewError(ErrTimeout, operation+" timed out").
		WithCause(cause).
		WithRetryable(true).
		WithHTTPStatus(http.StatusGatewayTimeout)
}

// NewShutdownError 关闭监听器失败
func NewShutdownError(protocol string, port int, cause error) *Error {
	return NewError(ErrShutdown, fmt.Sprintf("%s listener on port %d failed to shut down", protocol, port)).
		WithCause(cause).
		WithListener(protocol, port).
		WithHTTPStatus(http.StatusInternalServerError)
}

// =============================================================================
// 🔍 错误判定
// =============================================================================

// AsError extracts a *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err (or anything it wraps) carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return err != nil && GetErrorCode(err) == code
}
