package llm

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// Policy is a generic bounded-retry policy: at most MaxAttempts calls, with
// a linearly increasing delay (attempt × BaseDelay) between attempts, and
// retries only when Transient classifies the failure as retryable.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Transient   func(error) bool
}

// DefaultPolicy is three attempts with a 500ms base delay and the standard
// transient classifier.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, Transient: IsTransient}
}

// Do runs fn under the policy. Non-transient errors propagate immediately;
// transient ones are retried until the attempt ceiling is exhausted.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if p.Transient == nil || !p.Transient(lastErr) || attempt == p.MaxAttempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * p.BaseDelay):
		}
	}
	return lastErr
}

// IsTransient classifies remote-call failures likely to succeed on retry:
// timeouts, connection resets, DNS failures, and rate-limit or
// service-unavailable provider statuses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == 408 || se.Code == 429 || (se.Code >= 500 && se.Code <= 599)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return false
}
