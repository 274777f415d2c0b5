package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a client may submit another suggestion request.
type Limiter interface {
	// Allow records one request for key and reports whether it is within quota.
	Allow(ctx context.Context, key string) (Decision, error)

	// Close releases background resources and connections.
	Close() error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}
