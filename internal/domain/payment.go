package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingMethod names where the money for a payment came from.
type FundingMethod string

const (
	FundingBalance FundingMethod = "balance"
	FundingCard    FundingMethod = "card"
)

// Payment is the immutable record of a successful transfer. It is created once
// by the paying user and never modified afterwards.
type Payment struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Actor     *User
	Target    *User
	Note      string
	Method    FundingMethod
	CreatedAt time.Time
}

func newPayment(actor, target *User, amount decimal.Decimal, note string, method FundingMethod) *Payment {
	return &Payment{
		ID:        uuid.New(),
		Amount:    amount,
		Actor:     actor,
		Target:    target,
		Note:      note,
		Method:    method,
		CreatedAt: time.Now().UTC(),
	}
}

// Activity returns the feed entry describing p.
func (p *Payment) Activity() PaymentActivity {
	return PaymentActivity{
		Sender:    p.Actor.Username,
		Recipient: p.Target.Username,
		Amount:    p.Amount,
		Note:      p.Note,
	}
}

// ChargeRequest asks a card processor to move Amount off CardNumber for PaymentID.
type ChargeRequest struct {
	PaymentID  uuid.UUID
	CardNumber string
	Amount     decimal.Decimal
}

// CardCharger is the boundary to the external card processor. Implementations
// may block on I/O and must be safe for concurrent use.
type CardCharger interface {
	Charge(ctx context.Context, req ChargeRequest) error
}

// CardChargerFunc adapts a function to CardCharger.
type CardChargerFunc func(ctx context.Context, req ChargeRequest) error

func (f CardChargerFunc) Charge(ctx context.Context, req ChargeRequest) error {
	return f(ctx, req)
}

var noopCharger = CardChargerFunc(func(context.Context, ChargeRequest) error { return nil })
