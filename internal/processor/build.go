package processor

import (
	"log/slog"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/idempotency"
	"github.com/Proton-105/minivenmo/pkg/config"
)

// Charger is the charger used by the application: the simulated processor
// behind retries, a breaker, idempotency and metrics.
type Charger struct {
	domain.CardCharger
	resilient *ResilientCharger
}

// BreakerState reports the state of the processor's circuit breaker.
func (c *Charger) BreakerState() apperrors.State {
	return c.resilient.BreakerState()
}

func New(cfg *config.Config, idem idempotency.Manager, log *slog.Logger) *Charger {
	stub := NewStubCharger(log, cfg.Processor.Decline...)

	resilient := NewResilientCharger(stub, ResilientOptions{
		Idempotency:    idem,
		IdempotencyTTL: cfg.Idempotency.TTL,
		Retry:          RetryPolicy(cfg.Processor.Retry),
		Breaker:        BreakerSettings(cfg.Processor.Breaker),
		Timeout:        cfg.Processor.Timeout,
	}, log)

	return &Charger{
		CardCharger: Instrument(resilient),
		resilient:   resilient,
	}
}

func RetryPolicy(cfg config.RetryConfig) apperrors.RetryPolicy {
	return apperrors.RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		InitialBackoff:    cfg.InitialBackoff,
		MaxBackoff:        cfg.MaxBackoff,
		BackoffMultiplier: cfg.Multiplier,
	}
}

func BreakerSettings(cfg config.BreakerConfig) apperrors.BreakerSettings {
	return apperrors.BreakerSettings{
		ErrorThreshold:      cfg.ErrorThreshold,
		MinRequests:         cfg.MinRequests,
		OpenTimeout:         cfg.OpenTimeout,
		HalfOpenMaxRequests: cfg.HalfOpenMaxRequests,
	}
}
