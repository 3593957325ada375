package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

// Policy describes an exponential backoff schedule for transient failures.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Jitter is the fraction of the delay randomized in both directions,
	// e.g. 0.1 spreads each delay by up to 10%.
	Jitter float64
}

// Default is the agent-wide retry contract: three attempts, doubling from
// one second, capped at a minute, with 10% jitter.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// attempt budget, or ctx is done. Context errors win over fn errors so a run
// budget expiry surfaces as such instead of a backend failure.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, label string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !domain.IsTransient(last) {
			return last
		}
		if attempt == attempts {
			break
		}

		delay := p.delay(attempt)
		if logger != nil {
			logger.Warn("retrying after transient failure",
				"op", label, "attempt", attempt, "delay", delay, "error", last)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", label, attempts, last)
}

func (p Policy) delay(attempt int) time.Duration {
	base := float64(p.BaseDelay)
	if base <= 0 {
		base = float64(time.Second)
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= multiplier
	}
	if limit := float64(p.MaxDelay); limit > 0 && d > limit {
		d = limit
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (2*rand.Float64() - 1)
	}

	return time.Duration(d)
}
