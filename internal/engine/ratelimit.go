package engine

import (
	"context"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps aggregate throughput to
// bytesPerSec. The burst is set to 1 MB to allow natural read-size chunks
// through without unnecessary blocking on small reads.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// waitN blocks until n bytes may pass limiter. Requests larger than the
// burst are split, since rate.Limiter rejects them outright.
func waitN(ctx context.Context, limiter *rate.Limiter, n int) error {
	burst := limiter.Burst()
	for n > 0 {
		k := min(n, burst)
		if err := limiter.WaitN(ctx, k); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// throttle returns the platform copy hook for the configured limit, or nil.
func (s *Syncer) throttle(ctx context.Context) func(int) error {
	if s.limiter == nil {
		return nil
	}
	return func(n int) error {
		return waitN(ctx, s.limiter, n)
	}
}
