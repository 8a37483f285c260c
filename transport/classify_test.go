package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
)

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestClassifyExchangeError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantRequest  bool
		wantResponse bool
	}{
		{
			name:        "dns failure",
			err:         &net.DNSError{Err: "no such host", Name: "nowhere.invalid"},
			wantRequest: true,
		},
		{
			name:        "dial refused",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			wantRequest: true,
		},
		{
			name:         "connection reset",
			err:          &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			wantResponse: true,
		},
		{
			name:         "broken pipe",
			err:          fmt.Errorf("write: %w", syscall.EPIPE),
			wantResponse: true,
		},
		{
			name:         "reset during dial still counts as delivered",
			err:          &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNRESET},
			wantResponse: true,
		},
		{
			name:         "read deadline",
			err:          fmt.Errorf("read: %w", os.ErrDeadlineExceeded),
			wantResponse: true,
		},
		{
			name:         "net timeout",
			err:          &net.OpError{Op: "read", Net: "tcp", Err: fakeTimeoutError{}},
			wantResponse: true,
		},
		{
			name:         "unexpected eof",
			err:          io.ErrUnexpectedEOF,
			wantResponse: true,
		},
		{
			name:         "eof",
			err:          io.EOF,
			wantResponse: true,
		},
		{
			name:        "context canceled",
			err:         fmt.Errorf("Get \"http://x\": %w", context.Canceled),
			wantRequest: true,
		},
		{
			name:         "context deadline",
			err:          context.DeadlineExceeded,
			wantResponse: true,
		},
		{
			name:        "unknown error",
			err:         stderrors.New("malformed HTTP response"),
			wantRequest: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyExchangeError(tt.err)
			if errs.IsServiceRequestError(got) != tt.wantRequest {
				t.Errorf("IsServiceRequestError = %v, want %v (err: %v)",
					errs.IsServiceRequestError(got), tt.wantRequest, got)
			}
			if errs.IsServiceResponseError(got) != tt.wantResponse {
				t.Errorf("IsServiceResponseError = %v, want %v (err: %v)",
					errs.IsServiceResponseError(got), tt.wantResponse, got)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("classification must wrap the original error")
			}
		})
	}
}

func TestClassifyExchangeError_PreservesCause(t *testing.T) {
	cause := &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}
	wrapped := fmt.Errorf("Get \"http://nowhere.invalid\": %w", cause)

	got := classifyExchangeError(wrapped)

	var dnsErr *net.DNSError
	if !stderrors.As(got, &dnsErr) {
		t.Error("classified error should still expose the DNS cause via errors.As")
	}
}

func TestIsTransientStreamError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"aborted", fmt.Errorf("read: %w", syscall.ECONNABORTED), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"read deadline", os.ErrDeadlineExceeded, true},
		{"net timeout", fakeTimeoutError{}, true},
		{"read op", &net.OpError{Op: "read", Err: stderrors.New("connection gone")}, true},
		{"body after close", http.ErrBodyReadAfterClose, false},
		{"plain eof", io.EOF, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientStreamError(tt.err); got != tt.want {
				t.Errorf("isTransientStreamError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSleepContext(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		if err := SleepContext(context.Background(), 10*time.Millisecond); err != nil {
			t.Fatalf("SleepContext() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("returned after %v, want >= 10ms", elapsed)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := SleepContext(ctx, time.Minute); !stderrors.Is(err, context.Canceled) {
			t.Errorf("SleepContext() error = %v, want context.Canceled", err)
		}
	})
}
