package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/idempotency"
)

const defaultIdempotencyTTL = 24 * time.Hour

type ResilientOptions struct {
	// Idempotency deduplicates charges per payment; nil disables it.
	Idempotency    idempotency.Manager
	IdempotencyTTL time.Duration
	Retry          apperrors.RetryPolicy
	Breaker        apperrors.BreakerSettings
	// Timeout bounds a single attempt; zero means no limit.
	Timeout time.Duration
}

// ResilientCharger retries transient processor failures, stops calling a
// failing processor through a circuit breaker and never charges the same
// payment twice.
type ResilientCharger struct {
	next    domain.CardCharger
	idem    idempotency.Manager
	ttl     time.Duration
	retry   apperrors.RetryPolicy
	breaker *apperrors.CircuitBreaker
	timeout time.Duration
	log     *slog.Logger
}

func NewResilientCharger(next domain.CardCharger, opts ResilientOptions, log *slog.Logger) *ResilientCharger {
	if log == nil {
		log = slog.Default()
	}

	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return &ResilientCharger{
		next:    next,
		idem:    opts.Idempotency,
		ttl:     ttl,
		retry:   opts.Retry,
		breaker: apperrors.NewCircuitBreaker(opts.Breaker),
		timeout: opts.Timeout,
		log:     log,
	}
}

type chargeReceipt struct {
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

func (c *ResilientCharger) Charge(ctx context.Context, req domain.ChargeRequest) error {
	if c.idem == nil {
		return c.chargeWithRetry(ctx, req)
	}

	key := idempotency.GenerateKey("charge", req.PaymentID, req.CardNumber, req.Amount.String())
	result, err := c.idem.Execute(ctx, key, c.ttl, func(ctx context.Context) (any, error) {
		if err := c.chargeWithRetry(ctx, req); err != nil {
			return nil, err
		}
		return chargeReceipt{PaymentID: req.PaymentID.String(), Amount: req.Amount.StringFixed(2)}, nil
	})
	if err != nil {
		return err
	}

	if result.FromCache {
		c.log.InfoContext(ctx, "duplicate charge suppressed", slog.String("payment_id", req.PaymentID.String()))
	}

	return nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *ResilientCharger) BreakerState() apperrors.State {
	return c.breaker.State()
}

func (c *ResilientCharger) chargeWithRetry(ctx context.Context, req domain.ChargeRequest) error {
	attempt := 0

	return apperrors.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.breaker.Call(func() error {
			return c.attempt(ctx, req)
		}, apperrors.IsRetryable)

		if errors.Is(err, apperrors.ErrCircuitOpen) || errors.Is(err, apperrors.ErrHalfOpenTooManyRequests) {
			return apperrors.NewCircuitOpenError(err)
		}
		if err != nil && apperrors.IsRetryable(err) {
			c.log.WarnContext(ctx, "card charge attempt failed",
				slog.String("payment_id", req.PaymentID.String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}

		return err
	})
}

func (c *ResilientCharger) attempt(ctx context.Context, req domain.ChargeRequest) error {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.next.Charge(callCtx, req)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return apperrors.NewExternalAPIError(processorName, err)
	}

	return err
}
