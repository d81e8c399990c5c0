// Package feed turns activity logs into the human-readable lines shown to users.
package feed

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/minivenmo/internal/domain"
)

const (
	// DateLayout is how registration dates appear in the feed.
	DateLayout = "2006-01-02"

	unsupported = "Unsupported message type."
)

// FormatAmount renders a currency amount with exactly two decimals, rounding half away from zero.
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// Line renders a single activity record.
func Line(record domain.Activity) string {
	switch r := record.(type) {
	case domain.PaymentActivity:
		return fmt.Sprintf("%s paid %s %s for %s.", r.Sender, r.Recipient, FormatAmount(r.Amount), r.Note)
	case domain.FriendRequestActivity:
		return fmt.Sprintf("%s added %s as a friend", r.Sender, r.Recipient)
	case domain.RegistrationActivity:
		return fmt.Sprintf("%s registered on %s", r.Sender, r.Date.Format(DateLayout))
	default:
		return unsupported
	}
}

// Render returns one line per record, in input order. It does not modify records.
func Render(records []domain.Activity) []string {
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, Line(record))
	}

	return lines
}

// Renderer renders feeds and, while emission is on, also writes every line to a sink.
type Renderer struct {
	sink io.Writer
	emit atomic.Bool
}

// NewRenderer builds a Renderer writing to sink. A nil sink disables emission regardless of emit.
func NewRenderer(sink io.Writer, emit bool) *Renderer {
	r := &Renderer{sink: sink}
	r.emit.Store(emit)

	return r
}

// SetEmit switches emission on or off. Safe to call while other goroutines render.
func (r *Renderer) SetEmit(emit bool) {
	r.emit.Store(emit)
}

// Emitting reports whether Render currently writes to the sink.
func (r *Renderer) Emitting() bool {
	return r.emit.Load()
}

// Render is Render with the configured emission side effect.
func (r *Renderer) Render(records []domain.Activity) ([]string, error) {
	return r.RenderTo(records, r.Emitting())
}

// RenderTo overrides the configured emission flag for one call.
func (r *Renderer) RenderTo(records []domain.Activity, emit bool) ([]string, error) {
	lines := Render(records)
	if !emit || r.sink == nil {
		return lines, nil
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(r.sink, line); err != nil {
			return lines, fmt.Errorf("emit feed line: %w", err)
		}
	}

	return lines, nil
}
