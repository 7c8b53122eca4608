package rpc

import (
	"time"

	"shoplist/go-backend/internal/platform/ratelimiter"
)

type RateLimitOptions struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func DefaultRateLimitOptions() RateLimitOptions {
	return RateLimitOptions{
		Enabled: true,
		RPS:     30,
		Burst:   60,
	}
}

// newEventLimiter returns nil when limiting is off; a nil limiter allows all.
func newEventLimiter(opts RateLimitOptions) *ratelimiter.MapLimiter {
	if !opts.Enabled {
		return nil
	}
	return ratelimiter.New(opts.RPS, opts.Burst, 10*time.Minute)
}
