package retry

import (
	"context"
	"time"
)

// Policy describes a capped exponential backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before the retry following attempt (zero based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 || p.BaseDelay <= 0 {
		return 0
	}
	// Guard against shifting past the int64 range.
	if attempt > 30 {
		attempt = 30
	}
	delay := p.BaseDelay << attempt
	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay <= 0) {
		delay = p.MaxDelay
	}
	return delay
}

// Sleep waits for delay or until ctx is done.
func Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
