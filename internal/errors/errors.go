package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const defaultUserMessage = "Something went wrong. Please try again later."

// AppError is a classified application failure. Sentinel values are compared
// by identity, so callers match them with errors.Is.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError describes malformed caller input (usernames, card numbers, amounts).
func NewValidationError(code, msg string) *AppError {
	return &AppError{
		Code:        code,
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewRuleError describes a business rule the request violates in the current state.
func NewRuleError(code, msg string) *AppError {
	return &AppError{
		Code:        code,
		Message:     msg,
		UserMessage: fmt.Sprintf("Operation not allowed. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewExternalAPIError wraps a transient failure of an outside service.
func NewExternalAPIError(apiName string, cause error) *AppError {
	msg := fmt.Sprintf("External API error: %s", apiName)
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Error())
	}

	return &AppError{
		Code:        "E300",
		Message:     msg,
		UserMessage: "The service is temporarily unavailable",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewDeclinedError wraps a definitive refusal by an outside service. It is never retried.
func NewDeclinedError(apiName string, reason string) *AppError {
	return &AppError{
		Code:        "E302",
		Message:     fmt.Sprintf("%s declined: %s", apiName, reason),
		UserMessage: "The payment was declined",
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

// NewCircuitOpenError is returned when calls are short-circuited by a breaker.
func NewCircuitOpenError(cause error) *AppError {
	return &AppError{
		Code:        "E303",
		Message:     fmt.Sprintf("circuit breaker rejected call: %v", cause),
		UserMessage: "The service is temporarily unavailable",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       cause,
	}
}
