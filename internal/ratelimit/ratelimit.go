// Package ratelimit provides fixed-window admission control keyed by caller origin.
package ratelimit

import (
	"context"
	"time"
)

// Defaults for write admission.
const (
	DefaultWindow = time.Minute
	DefaultMax    = 12
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed bool
	// Remaining admits left in the current window.
	Remaining int
	// RetryAfter is the time until the current window ends.
	RetryAfter time.Duration
}

// Limiter admits or rejects requests for a key.
type Limiter interface {
	Admit(ctx context.Context, key string) (Decision, error)
}

// Unlimited admits everything. Used when the limit is disabled (max <= 0).
type Unlimited struct{}

// Admit always allows.
func (Unlimited) Admit(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}
