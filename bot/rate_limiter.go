package bot

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RateLimiter manages API call rate limiting
type RateLimiter struct {
	mutex       sync.Mutex
	lastCall    time.Time
	minInterval time.Duration
}

// NewRateLimiter creates a limiter that spaces calls at least minInterval apart
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait waits if necessary to respect rate limits
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	elapsed := time.Since(rl.lastCall)
	if elapsed < rl.minInterval {
		waitTime := rl.minInterval - elapsed
		log.Debugf("Rate limiting: waiting %v before next API call", waitTime)

		timer := time.NewTimer(waitTime)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rl.lastCall = time.Now()
	return nil
}
