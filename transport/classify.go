package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"syscall"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
)

// isProtocolBreak reports whether err is a connection torn down by the peer.
// The request may have been delivered before the break, so these always
// classify as response-phase failures.
func isProtocolBreak(err error) bool {
	return stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, syscall.EPIPE) ||
		stderrors.Is(err, syscall.ECONNABORTED)
}

// classifyExchangeError wraps a failed exchange into the two-kind taxonomy.
// Request-phase failures (DNS, dial, cancellation before send) become
// ServiceRequestError; everything after the request hit the wire becomes
// ServiceResponseError.
func classifyExchangeError(err error) error {
	switch {
	case stderrors.Is(err, context.Canceled):
		return errs.NewServiceRequestError(err)
	case isDNSFailure(err):
		return errs.NewServiceRequestError(err)
	case isProtocolBreak(err):
		return errs.NewServiceResponseError(err)
	case isDialFailure(err):
		return errs.NewServiceRequestError(err)
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		return errs.NewServiceResponseError(err)
	case isTimeout(err):
		return errs.NewServiceResponseError(err)
	case stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errs.NewServiceResponseError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errs.NewServiceResponseError(err)
	default:
		return errs.NewServiceRequestError(err)
	}
}

func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

func isDialFailure(err error) bool {
	var opErr *net.OpError
	return stderrors.As(err, &opErr) && opErr.Op == "dial"
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// isTransientStreamError reports whether a mid-body read failure justifies a
// ranged re-request. Cancellation is final: the consumer's context is gone
// and a retry cannot outlive it.
func isTransientStreamError(err error) bool {
	switch {
	case err == nil:
		return false
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return false
	case isProtocolBreak(err):
		return true
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return true
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		return true
	case isTimeout(err):
		return true
	default:
		var opErr *net.OpError
		return stderrors.As(err, &opErr) && opErr.Op == "read"
	}
}
