package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// errOutage marks a call that counts against the circuit breaker.
var errOutage = errors.New("backend outage")

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	Failures uint32        // consecutive outages before opening; 0 disables the breaker
	Cooldown time.Duration // time spent open before a trial call
}

// DefaultBreakerConfig returns default circuit breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Failures: 5,
		Cooldown: 30 * time.Second,
	}
}

type breakerBackend struct {
	Backend
	cb *gobreaker.CircuitBreaker
}

// WithBreaker wraps b with a circuit breaker. While the breaker is open the
// backend answers ReasonCircuitOpen without touching the network. Only
// outages trip it; echoed or empty answers do not.
func WithBreaker(b Backend, cfg BreakerConfig, logger *slog.Logger) Backend {
	if cfg.Failures == 0 {
		return b
	}
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.Name(),
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend circuit state changed", "backend", name, "from", from.String(), "to", to.String())
		},
	})

	return &breakerBackend{Backend: b, cb: cb}
}

func (b *breakerBackend) Translate(ctx context.Context, text, source, target string) Outcome {
	result, _ := b.cb.Execute(func() (interface{}, error) {
		out := b.Backend.Translate(ctx, text, source, target)
		if out.Reason.outage() {
			return out, errOutage
		}
		return out, nil
	})

	// A nil result means the breaker refused the call
	out, ok := result.(Outcome)
	if !ok {
		return Failure(ReasonCircuitOpen)
	}
	return out
}

type limitedBackend struct {
	Backend
	limiter *rate.Limiter
}

// WithRateLimit wraps b so calls are spaced at most rps per second.
// A call that cannot get a slot before its context ends answers
// ReasonRateLimited. rps <= 0 leaves b unchanged.
func WithRateLimit(b Backend, rps float64, burst int) Backend {
	if rps <= 0 {
		return b
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedBackend{Backend: b, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limitedBackend) Translate(ctx context.Context, text, source, target string) Outcome {
	if err := l.limiter.Wait(ctx); err != nil {
		return Failure(ReasonRateLimited)
	}
	return l.Backend.Translate(ctx, text, source, target)
}
