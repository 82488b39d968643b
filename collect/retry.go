package collect

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"venuefeed/model"
)

// RetryPolicy decides whether a failed attempt gets another try and how
// long to wait first. It is pure: the coordinator owns the attempt
// counter and all timing.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

// ShouldRetry returns whether to retry after the attempt-th failure of
// the given kind, and the backoff delay to wait before doing so. The
// delay doubles per attempt up to Cap, with jitter so sources that fail
// together do not hammer their hosts in lockstep.
func (p RetryPolicy) ShouldRetry(kind model.ErrorKind, attempt int) (bool, time.Duration) {
	if !kind.Retryable() || attempt >= p.MaxAttempts {
		return false, 0
	}

	delay := p.Base << (attempt - 1)
	if p.Cap > 0 && delay > p.Cap {
		delay = p.Cap
	}
	if delay > 0 {
		jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
		delay += jitter
	}
	return true, delay
}

// Classify maps a raw extraction error to the failure taxonomy. Kinds
// pinned by a strategy win; context expiry is a timeout; anything that
// smells like the network is unreachable. Untagged leftovers classify as
// unreachable, keeping them retryable.
func Classify(err error) model.ErrorKind {
	if kind, ok := model.KindOf(err); ok {
		return kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return model.KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return model.KindTimeout
		}
		return model.KindUnreachable
	}
	return model.KindUnreachable
}
