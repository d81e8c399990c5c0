package processor

import (
	"context"
	"errors"
	"time"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/pkg/metrics"
)

// InstrumentedCharger records the outcome and latency of every charge.
type InstrumentedCharger struct {
	next domain.CardCharger
}

func Instrument(next domain.CardCharger) *InstrumentedCharger {
	return &InstrumentedCharger{next: next}
}

func (c *InstrumentedCharger) Charge(ctx context.Context, req domain.ChargeRequest) error {
	start := time.Now()
	err := c.next.Charge(ctx, req)
	metrics.RecordCardCharge(chargeStatus(err), time.Since(start))

	return err
}

func chargeStatus(err error) string {
	if err == nil {
		return "success"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "E302":
			return "declined"
		case "E303":
			return "rejected"
		}
	}

	return "error"
}
