// Package venmo is the MiniVenmo application facade: it registers users,
// routes payments and friend requests between them by username and renders
// their feeds.
package venmo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/feed"
	"github.com/Proton-105/minivenmo/pkg/logger"
	"github.com/Proton-105/minivenmo/pkg/metrics"
)

type Option func(*App)

// WithCardPolicy sets which card numbers new users may attach.
func WithCardPolicy(p domain.CardPolicy) Option {
	return func(a *App) {
		a.cards = p
	}
}

// WithErrorHandler routes failures of the demo scenario through h.
func WithErrorHandler(h *apperrors.Handler) Option {
	return func(a *App) {
		if h != nil {
			a.errs = h
		}
	}
}

// WithClock overrides the time source used for registration dates.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App holds one independent set of users. Two Apps never share state.
type App struct {
	log      *slog.Logger
	charger  domain.CardCharger
	renderer *feed.Renderer
	cards    domain.CardPolicy
	errs     *apperrors.Handler
	now      func() time.Time

	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewApp(log *slog.Logger, charger domain.CardCharger, renderer *feed.Renderer, opts ...Option) *App {
	if log == nil {
		log = slog.Default()
	}
	if renderer == nil {
		renderer = feed.NewRenderer(nil, false)
	}

	a := &App{
		log:      log,
		charger:  charger,
		renderer: renderer,
		cards:    domain.NewCardPolicy(),
		errs:     apperrors.NewHandler(log, false),
		now:      time.Now,
		users:    make(map[string]*domain.User),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// CreateUser registers a user with an opening balance and, unless cardNumber
// is empty, a credit card. The user's log starts with a registration record.
func (a *App) CreateUser(ctx context.Context, username string, balance decimal.Decimal, cardNumber string) (*domain.User, error) {
	user, err := domain.NewUser(username, domain.WithCharger(a.charger), domain.WithCardPolicy(a.cards))
	if err != nil {
		return nil, err
	}

	if cardNumber != "" {
		if err := user.AddCreditCard(cardNumber); err != nil {
			return nil, err
		}
	}

	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance %s", domain.ErrInvalidAmount, feed.FormatAmount(balance))
	}
	if err := user.AddToBalance(balance); err != nil {
		return nil, err
	}

	a.mu.Lock()
	if _, taken := a.users[username]; taken {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", domain.ErrUsernameTaken, username)
	}
	a.users[username] = user
	a.mu.Unlock()

	user.AddToActivity(domain.RegistrationActivity{Sender: username, Date: a.now()})
	metrics.RecordRegistration()

	a.log.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID.String()),
		slog.String("username", username),
		slog.String("card_number", cardNumber),
		slog.String("balance", feed.FormatAmount(balance)),
	)

	return user, nil
}

// Lookup returns the user registered under username.
func (a *App) Lookup(username string) (*domain.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	user, ok := a.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, username)
	}

	return user, nil
}

// Usernames lists registered users in alphabetical order.
func (a *App) Usernames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.users))
	for name := range a.users {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Pay moves amount from one user to another, balance first and card otherwise.
func (a *App) Pay(ctx context.Context, from, to string, amount decimal.Decimal, note string) (*domain.Payment, error) {
	ctx = logger.WithCorrelationID(ctx)

	actor, err := a.Lookup(from)
	if err != nil {
		return nil, err
	}
	target, err := a.Lookup(to)
	if err != nil {
		return nil, err
	}

	intended := domain.FundingCard
	if actor.Balance().GreaterThanOrEqual(amount) {
		intended = domain.FundingBalance
	}

	payment, err := actor.Pay(ctx, target, amount, note)
	if err != nil {
		metrics.RecordPayment(string(intended), "failed", 0)
		a.log.DebugContext(ctx, "payment rejected",
			slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			slog.String("from", from),
			slog.String("to", to),
			slog.Any("error", err),
		)
		return nil, err
	}

	metrics.RecordPayment(string(payment.Method), "success", payment.Amount.InexactFloat64())
	a.log.InfoContext(ctx, "payment completed",
		slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
		slog.String("payment_id", payment.ID.String()),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("amount", feed.FormatAmount(payment.Amount)),
		slog.String("method", string(payment.Method)),
	)

	return payment, nil
}

// AddFriend makes to a friend of from.
func (a *App) AddFriend(ctx context.Context, from, to string) error {
	user, err := a.Lookup(from)
	if err != nil {
		return err
	}
	other, err := a.Lookup(to)
	if err != nil {
		return err
	}

	if _, err := user.AddFriend(other); err != nil {
		metrics.RecordFriendRequest("failed")
		return err
	}

	metrics.RecordFriendRequest("success")
	a.log.InfoContext(ctx, "friend added", slog.String("from", from), slog.String("to", to))

	return nil
}

// RenderFeed renders records and writes them to the app's sink when emit is true.
func (a *App) RenderFeed(records []domain.Activity, emit bool) ([]string, error) {
	return a.renderer.RenderTo(records, emit)
}

// Renderer exposes the feed renderer so callers can toggle emission.
func (a *App) Renderer() *feed.Renderer {
	return a.renderer
}

// Run plays the demo: Bobby and Carol register, pay each other, Bobby's feed
// is rendered through the configured renderer, then Bobby befriends Carol.
func (a *App) Run(ctx context.Context) ([]string, error) {
	bobby, err := a.CreateUser(ctx, "Bobby", decimal.RequireFromString("5.00"), "4111111111111111")
	if err != nil {
		return nil, err
	}
	if _, err := a.CreateUser(ctx, "Carol", decimal.RequireFromString("10.00"), "4242424242424242"); err != nil {
		return nil, err
	}

	if err := a.demoPayments(ctx); err != nil {
		msg, _ := a.errs.Handle(ctx, err)
		a.log.WarnContext(ctx, "demo payment failed", slog.String("reason", msg))
	}

	lines, err := a.renderer.Render(bobby.RetrieveFeed())
	if err != nil {
		return lines, err
	}

	if err := a.AddFriend(ctx, "Bobby", "Carol"); err != nil {
		return lines, err
	}

	return lines, nil
}

func (a *App) demoPayments(ctx context.Context) error {
	if _, err := a.Pay(ctx, "Bobby", "Carol", decimal.RequireFromString("5.00"), "Coffee"); err != nil {
		return err
	}

	_, err := a.Pay(ctx, "Carol", "Bobby", decimal.RequireFromString("15.00"), "Lunch")
	return err
}
