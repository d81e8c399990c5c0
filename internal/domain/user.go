package domain

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User owns a balance, at most one credit card, a friend set and an
// append-only activity log. All methods are safe for concurrent use; the
// two-user operations lock both parties in ID order.
type User struct {
	ID       uuid.UUID
	Username string

	mu         sync.Mutex
	balance    decimal.Decimal
	cardNumber string
	friends    []uuid.UUID
	activity   []Activity

	charger CardCharger
	cards   CardPolicy
}

// Option customises a User at construction time.
type Option func(*User)

// WithCharger routes card payments through c instead of the no-op stub.
func WithCharger(c CardCharger) Option {
	return func(u *User) {
		if c != nil {
			u.charger = c
		}
	}
}

// WithCardPolicy restricts which card numbers AddCreditCard accepts.
func WithCardPolicy(p CardPolicy) Option {
	return func(u *User) {
		u.cards = p
	}
}

// NewUser validates username and returns a user with zero balance and no card.
func NewUser(username string, opts ...Option) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	u := &User{
		ID:       uuid.New(),
		Username: username,
		balance:  decimal.Zero,
		charger:  noopCharger,
		cards:    NewCardPolicy(),
	}
	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

// Balance returns the current balance.
func (u *User) Balance() decimal.Decimal {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.balance
}

// CardNumber returns the attached card, or "" when there is none.
func (u *User) CardNumber() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.cardNumber
}

// Friends returns a copy of the friend set in insertion order.
func (u *User) Friends() []uuid.UUID {
	u.mu.Lock()
	defer u.mu.Unlock()

	return slices.Clone(u.friends)
}

// AddToBalance credits (or, for negative amounts, debits) the balance. The
// balance may never go below zero.
func (u *User) AddToBalance(amount decimal.Decimal) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	next := u.balance.Add(amount)
	if next.IsNegative() {
		return fmt.Errorf("%w: balance would become %s", ErrInvalidAmount, next.StringFixed(2))
	}
	u.balance = next

	return nil
}

// AddCreditCard attaches number as the user's only funding instrument.
func (u *User) AddCreditCard(number string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cardNumber != "" {
		return ErrDuplicateFundingInstrument
	}

	if err := u.cards.Validate(number); err != nil {
		return err
	}
	u.cardNumber = number

	return nil
}

// AddToActivity appends record to the end of the log.
func (u *User) AddToActivity(record Activity) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.activity = append(u.activity, record)
}

// RetrieveFeed returns the log in insertion order. The slice is a copy and is
// not affected by later appends.
func (u *User) RetrieveFeed() []Activity {
	u.mu.Lock()
	defer u.mu.Unlock()

	return slices.Clone(u.activity)
}

// Pay sends amount to target, drawing on the balance when it covers the whole
// amount and charging the card otherwise.
func (u *User) Pay(ctx context.Context, target *User, amount decimal.Decimal, note string) (*Payment, error) {
	if u.Balance().GreaterThanOrEqual(amount) {
		return u.PayWithBalance(ctx, target, amount, note)
	}

	return u.PayWithCard(ctx, target, amount, note)
}

// PayWithBalance moves amount from u's balance to target's balance.
func (u *User) PayWithBalance(_ context.Context, target *User, amount decimal.Decimal, note string) (*Payment, error) {
	if err := u.checkPayment(target, amount); err != nil {
		return nil, err
	}

	unlock := lockPair(u, target)
	defer unlock()

	if u.balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	payment := newPayment(u, target, amount, note, FundingBalance)
	target.balance = target.balance.Add(amount)
	u.balance = u.balance.Sub(amount)

	record := payment.Activity()
	u.activity = append(u.activity, record)
	target.activity = append(target.activity, record)

	return payment, nil
}

// PayWithCard charges u's card and credits target. u's balance is untouched.
// No user lock is held while the processor is called.
func (u *User) PayWithCard(ctx context.Context, target *User, amount decimal.Decimal, note string) (*Payment, error) {
	if err := u.checkPayment(target, amount); err != nil {
		return nil, err
	}

	card := u.CardNumber()
	if card == "" {
		return nil, ErrNoFundingInstrument
	}

	payment := newPayment(u, target, amount, note, FundingCard)
	req := ChargeRequest{PaymentID: payment.ID, CardNumber: card, Amount: amount}
	if err := u.charger.Charge(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCardChargeFailed, err)
	}

	unlock := lockPair(u, target)
	defer unlock()

	target.balance = target.balance.Add(amount)

	record := payment.Activity()
	u.activity = append(u.activity, record)
	target.activity = append(target.activity, record)

	return payment, nil
}

// AddFriend adds other to u's friend set and notifies both users' logs.
// Membership is one-directional: other's friend set is not changed.
func (u *User) AddFriend(other *User) (uuid.UUID, error) {
	if other == nil {
		return uuid.Nil, ErrUserNotFound
	}

	if u.sameAs(other) {
		return uuid.Nil, ErrSelfFriend
	}

	unlock := lockPair(u, other)
	defer unlock()

	if slices.Contains(u.friends, other.ID) {
		return uuid.Nil, fmt.Errorf("%w: user ID %s is already friends with %s", ErrDuplicateFriend, u.ID, other.ID)
	}

	u.friends = append(u.friends, other.ID)

	record := FriendRequestActivity{Sender: u.Username, Recipient: other.Username}
	u.activity = append(u.activity, record)
	other.activity = append(other.activity, record)

	return other.ID, nil
}

func (u *User) checkPayment(target *User, amount decimal.Decimal) error {
	if target == nil {
		return ErrUserNotFound
	}

	if u.sameAs(target) {
		return ErrSelfPayment
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

func (u *User) sameAs(other *User) bool {
	return u == other || u.ID == other.ID || u.Username == other.Username
}

// lockPair locks two distinct users in a stable order so that opposite
// transfers cannot deadlock.
func lockPair(a, b *User) func() {
	first, second := a, b
	if bytes.Compare(b.ID[:], a.ID[:]) < 0 {
		first, second = b, a
	}

	first.mu.Lock()
	second.mu.Lock()

	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
