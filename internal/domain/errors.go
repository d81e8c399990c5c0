package domain

import (
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
)

// Input validation failures.
var (
	ErrInvalidUsername = apperrors.NewValidationError("E101", "username not valid")
	ErrInvalidCard     = apperrors.NewValidationError("E102", "invalid credit card number")
	ErrInvalidAmount   = apperrors.NewValidationError("E103", "amount must be a positive number")
)

// Business rule violations. None of them leave partial state behind.
var (
	ErrSelfPayment                = apperrors.NewRuleError("E401", "user cannot pay themselves")
	ErrInsufficientBalance        = apperrors.NewRuleError("E402", "insufficient balance to make payment")
	ErrNoFundingInstrument        = apperrors.NewRuleError("E403", "must have a credit card to make a payment")
	ErrDuplicateFundingInstrument = apperrors.NewRuleError("E404", "only one credit card per user")
	ErrSelfFriend                 = apperrors.NewRuleError("E405", "user cannot add themselves as a friend")
	ErrDuplicateFriend            = apperrors.NewRuleError("E406", "users are already friends")
	ErrUsernameTaken              = apperrors.NewRuleError("E407", "username already taken")
	ErrUserNotFound               = apperrors.NewRuleError("E408", "user not found")
)

// ErrCardChargeFailed wraps whatever the card processor returned when a charge did not go through.
var ErrCardChargeFailed = &apperrors.AppError{
	Code:        "E301",
	Message:     "card charge failed",
	UserMessage: "We could not charge your card",
	Severity:    apperrors.SeverityMedium,
	Retryable:   false,
}
