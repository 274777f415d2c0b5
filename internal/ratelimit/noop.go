package ratelimit

import "context"

// NoOpLimiter allows every request. Used when RATE_LIMIT_PROVIDER=none.
type NoOpLimiter struct{}

// NewNoOpLimiter creates a limiter without quotas.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

// Allow always allows.
func (l *NoOpLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}

// Close does nothing and always succeeds
func (l *NoOpLimiter) Close() error {
	return nil
}
