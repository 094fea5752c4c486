package types

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrShutdown, "drain failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithListener("https", 3001)

	if GetErrorCode(err) != ErrShutdown {
		t.Fatalf("expected code %s, got %s", ErrShutdown, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if err.Port != 3001 || err.Protocol != "https" {
		t.Fatalf("unexpected listener metadata: %s/%d", err.Protocol, err.Port)
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestNewBindError(t *testing.T) {
	t.Parallel()

	err := NewBindError("http", 3000, syscall.EADDRINUSE)

	if err.Code != ErrBind {
		t.Fatalf("expected %s, got %s", ErrBind, err.Code)
	}
	if err.Port != 3000 {
		t.Fatalf("expected port 3000, got %d", err.Port)
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		t.Fatalf("expected OS cause to be reachable")
	}
	if !err.Retryable {
		t.Fatalf("bind errors should be retryable")
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", err.HTTPStatus)
	}
}

func TestIsErrorCode_Wrapped(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("start: %w", NewAlreadyRunningError("running"))

	if !IsErrorCode(wrapped, ErrAlreadyRunning) {
		t.Fatalf("expected wrapped error to carry %s", ErrAlreadyRunning)
	}
	if IsErrorCode(wrapped, ErrNotRunning) {
		t.Fatalf("did not expect %s", ErrNotRunning)
	}
	if IsErrorCode(nil, ErrNotRunning) {
		t.Fatalf("nil error must not match any code")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	t.Parallel()

	errs := map[ErrorCode]error{
		ErrConfig:         NewConfigError("missing TLS material", nil),
		ErrBind:           NewBindError("https", 3001, errors.New("boom")),
		ErrNotRunning:     NewNotRunningError("stopped"),
		ErrAlreadyRunning: NewAlreadyRunningError("running"),
		ErrTimeout:        NewTimeoutError("start", errors.New("deadline")),
		ErrShutdown:       NewShutdownError("http", 3000, errors.New("drain")),
	}

	for want, err := range errs {
		if got := GetErrorCode(err); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
	if IsRetryable(errs[ErrConfig]) {
		t.Errorf("config errors must not be retryable")
	}
}
