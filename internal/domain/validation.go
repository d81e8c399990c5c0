package domain

import (
	"fmt"
	"regexp"

	validator "github.com/go-playground/validator/v10"
)

const (
	usernameRules = "required,min=4,max=15,username_chars"
	cardRules     = "required,numeric,min=12,max=19"
)

// DefaultAcceptedCards is the processor's whitelist when none is configured.
var DefaultAcceptedCards = []string{"4111111111111111", "4242424242424242"}

var usernameChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameChars.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register username validation: %v", err))
	}

	return v
}

// ValidateUsername accepts 4 to 15 letters, digits, underscores or hyphens.
func ValidateUsername(username string) error {
	if err := validate.Var(username, usernameRules); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	return nil
}

// CardPolicy decides which card numbers the processor will accept.
type CardPolicy struct {
	accepted map[string]struct{}
}

// NewCardPolicy accepts exactly the given numbers; with none it falls back to DefaultAcceptedCards.
func NewCardPolicy(numbers ...string) CardPolicy {
	if len(numbers) == 0 {
		numbers = DefaultAcceptedCards
	}

	accepted := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		accepted[n] = struct{}{}
	}

	return CardPolicy{accepted: accepted}
}

// Validate reports ErrInvalidCard for malformed or unknown numbers.
func (p CardPolicy) Validate(number string) error {
	if err := validate.Var(number, cardRules); err != nil {
		return ErrInvalidCard
	}

	accepted := p.accepted
	if accepted == nil {
		accepted = NewCardPolicy().accepted
	}

	if _, ok := accepted[number]; !ok {
		return ErrInvalidCard
	}

	return nil
}
