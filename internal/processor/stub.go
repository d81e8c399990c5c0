// Package processor holds the card-processor side of a card payment: a
// simulated processor plus decorators that add idempotency, retries, a
// circuit breaker and metrics around any domain.CardCharger.
package processor

import (
	"context"
	"log/slog"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/pkg/logger"
)

const processorName = "card processor"

// StubCharger simulates the external processor. Every charge succeeds unless
// the card is on its decline list.
type StubCharger struct {
	log      *slog.Logger
	declined map[string]struct{}
}

func NewStubCharger(log *slog.Logger, declined ...string) *StubCharger {
	if log == nil {
		log = slog.Default()
	}

	set := make(map[string]struct{}, len(declined))
	for _, number := range declined {
		set[number] = struct{}{}
	}

	return &StubCharger{
		log:      log,
		declined: set,
	}
}

func (c *StubCharger) Charge(ctx context.Context, req domain.ChargeRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attrs := []slog.Attr{
		slog.String("payment_id", req.PaymentID.String()),
		slog.String("card_number", req.CardNumber),
		slog.String("amount", req.Amount.StringFixed(2)),
	}

	if _, ok := c.declined[req.CardNumber]; ok {
		c.log.LogAttrs(ctx, slog.LevelWarn, "card charge declined", attrs...)
		return apperrors.NewDeclinedError(processorName, "card "+logger.MaskCardNumber(req.CardNumber)+" refused")
	}

	c.log.LogAttrs(ctx, slog.LevelInfo, "card charged", attrs...)

	return nil
}
