package apiclient

import (
	"context"
	"time"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
)

// RetryPolicy decides whether a failed exchange is attempted again.
type RetryPolicy struct {
	// MaxAttempts counts the first try.
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(req Request, err error) bool
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries idempotent reads on network and timeout
// failures, waiting attempt×step between tries.
func DefaultRetryPolicy(maxAttempts int, step time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(step),
		Retryable:   RetryTransientReads,
		Sleep:       SleepContext,
	}
}

// NoRetry performs every request exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// RetryTransientReads never retries HTTP status errors or non-idempotent methods.
func RetryTransientReads(req Request, err error) bool {
	if !req.idempotent() {
		return false
	}
	return domain.IsDomainError(err, domain.ErrCodeNetwork) || domain.IsDomainError(err, domain.ErrCodeTimeout)
}

// SleepContext waits for d or until ctx is done. The timer is always stopped.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = LinearBackoff(time.Second)
	}
	if p.Retryable == nil {
		p.Retryable = RetryTransientReads
	}
	if p.Sleep == nil {
		p.Sleep = SleepContext
	}
	return p
}

// AuthRetryPolicy controls the refresh-and-retry reaction to 401 responses.
// A request is retried at most once after a successful refresh.
type AuthRetryPolicy struct {
	Disabled bool
	// Excluded paths never trigger a refresh. Login must be among them so
	// bad credentials surface as-is.
	Excluded []string
}

func (p AuthRetryPolicy) applies(req Request) bool {
	if p.Disabled {
		return false
	}
	for _, path := range p.Excluded {
		if req.Path == path {
			return false
		}
	}
	return true
}

// DefaultAuthRetryPolicy excludes the login and refresh endpoints.
func DefaultAuthRetryPolicy(endpoints config.Endpoints) AuthRetryPolicy {
	return AuthRetryPolicy{Excluded: []string{endpoints.Login, endpoints.Refresh}}
}
