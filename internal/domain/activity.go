package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityKind tags the variants of Activity.
type ActivityKind string

const (
	KindPayment       ActivityKind = "payment"
	KindFriendRequest ActivityKind = "friend_request"
	KindRegistration  ActivityKind = "registration"
)

// Activity is one entry of a user's chronological log. The set of
// implementations is closed to this package.
type Activity interface {
	Kind() ActivityKind
	activity()
}

// PaymentActivity records a completed payment.
type PaymentActivity struct {
	Sender    string          `json:"sender_username"`
	Recipient string          `json:"recipient_username"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
}

// FriendRequestActivity records that Sender added Recipient as a friend.
type FriendRequestActivity struct {
	Sender    string `json:"sender_username"`
	Recipient string `json:"recipient_username"`
}

// RegistrationActivity records when a user joined.
type RegistrationActivity struct {
	Sender string    `json:"sender_username"`
	Date   time.Time `json:"date"`
}

func (PaymentActivity) Kind() ActivityKind       { return KindPayment }
func (FriendRequestActivity) Kind() ActivityKind { return KindFriendRequest }
func (RegistrationActivity) Kind() ActivityKind  { return KindRegistration }

func (PaymentActivity) activity()       {}
func (FriendRequestActivity) activity() {}
func (RegistrationActivity) activity()  {}
