package venmo

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/feed"
	"github.com/Proton-105/minivenmo/internal/processor"
)

const (
	cardA = "4111111111111111"
	cardB = "4242424242424242"
)

var registeredAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newApp(t *testing.T, charger domain.CardCharger) (*App, *bytes.Buffer) {
	t.Helper()

	var sink bytes.Buffer
	app := NewApp(testLogger(), charger, feed.NewRenderer(&sink, true),
		WithClock(func() time.Time { return registeredAt }),
	)

	return app, &sink
}

func TestCreateUser(t *testing.T) {
	app, _ := newApp(t, nil)

	user, err := app.CreateUser(context.Background(), "Carlos", dec("12.50"), cardA)
	require.NoError(t, err)

	assert.Equal(t, "Carlos", user.Username)
	assert.True(t, user.Balance().Equal(dec("12.50")))
	assert.Equal(t, cardA, user.CardNumber())
	assert.Equal(t, []domain.Activity{
		domain.RegistrationActivity{Sender: "Carlos", Date: registeredAt},
	}, user.RetrieveFeed())

	found, err := app.Lookup("Carlos")
	require.NoError(t, err)
	assert.Same(t, user, found)
}

func TestCreateUser_Failures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		balance  string
		card     string
		wantErr  error
	}{
		{name: "username too short", username: "Car", balance: "0", card: cardA, wantErr: domain.ErrInvalidUsername},
		{name: "username bad chars", username: "bad name", balance: "0", card: "", wantErr: domain.ErrInvalidUsername},
		{name: "unknown card", username: "Carlos", balance: "0", card: "1234567812345678", wantErr: domain.ErrInvalidCard},
		{name: "negative balance", username: "Carlos", balance: "-1", card: "", wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t, nil)

			user, err := app.CreateUser(context.Background(), tt.username, dec(tt.balance), tt.card)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user)
			assert.Empty(t, app.Usernames())
		})
	}
}

func TestCreateUser_WithoutCard(t *testing.T) {
	app, _ := newApp(t, nil)

	user, err := app.CreateUser(context.Background(), "Carlos", decimal.Zero, "")
	require.NoError(t, err)
	assert.Empty(t, user.CardNumber())
}

func TestCreateUser_UsernameTaken(t *testing.T) {
	app, _ := newApp(t, nil)

	_, err := app.CreateUser(context.Background(), "Carlos", decimal.Zero, "")
	require.NoError(t, err)

	_, err = app.CreateUser(context.Background(), "Carlos", decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestCreateUser_CustomCardPolicy(t *testing.T) {
	app := NewApp(testLogger(), nil, nil, WithCardPolicy(domain.NewCardPolicy("5555555555554444")))

	_, err := app.CreateUser(context.Background(), "Carlos", decimal.Zero, cardA)
	assert.ErrorIs(t, err, domain.ErrInvalidCard)

	_, err = app.CreateUser(context.Background(), "Carlos", decimal.Zero, "5555555555554444")
	assert.NoError(t, err)
}

func TestAppsAreIndependent(t *testing.T) {
	first, _ := newApp(t, nil)
	second, _ := newApp(t, nil)

	_, err := first.CreateUser(context.Background(), "Carlos", decimal.Zero, "")
	require.NoError(t, err)

	_, err = second.Lookup("Carlos")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPay_BalanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, nil)

	a, err := app.CreateUser(ctx, "Alice", dec("5.00"), cardA)
	require.NoError(t, err)
	b, err := app.CreateUser(ctx, "Bobby", dec("10.00"), cardB)
	require.NoError(t, err)

	p, err := app.Pay(ctx, "Alice", "Bobby", dec("5.00"), "Coffee")
	require.NoError(t, err)
	assert.Equal(t, domain.FundingBalance, p.Method)
	assert.True(t, a.Balance().Equal(dec("0.00")))
	assert.True(t, b.Balance().Equal(dec("15.00")))

	p, err = app.Pay(ctx, "Bobby", "Alice", dec("15.00"), "Lunch")
	require.NoError(t, err)
	assert.Equal(t, domain.FundingBalance, p.Method)
	assert.True(t, a.Balance().Equal(dec("15.00")))
	assert.True(t, b.Balance().IsZero())

	lines, err := app.RenderFeed(a.RetrieveFeed()[1:], false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Alice paid Bobby $5.00 for Coffee.",
		"Bobby paid Alice $15.00 for Lunch.",
	}, lines)
}

func TestPay_FallsBackToCard(t *testing.T) {
	ctx := context.Background()
	fake := processor.NewFakeCharger()
	app, _ := newApp(t, fake)

	a, err := app.CreateUser(ctx, "Alice", dec("1.00"), cardA)
	require.NoError(t, err)
	b, err := app.CreateUser(ctx, "Bobby", decimal.Zero, "")
	require.NoError(t, err)

	p, err := app.Pay(ctx, "Alice", "Bobby", dec("3.00"), "Taxi")
	require.NoError(t, err)

	assert.Equal(t, domain.FundingCard, p.Method)
	assert.True(t, a.Balance().Equal(dec("1.00")))
	assert.True(t, b.Balance().Equal(dec("3.00")))
	require.Len(t, fake.Calls(), 1)
	assert.Equal(t, cardA, fake.Calls()[0].CardNumber)
}

func TestPay_ChargeFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	fake := processor.NewFakeCharger(apperrors.NewDeclinedError("processor", "blocked"))
	app, _ := newApp(t, fake)

	a, err := app.CreateUser(ctx, "Alice", decimal.Zero, cardA)
	require.NoError(t, err)
	b, err := app.CreateUser(ctx, "Bobby", decimal.Zero, "")
	require.NoError(t, err)

	_, err = app.Pay(ctx, "Alice", "Bobby", dec("3.00"), "Taxi")
	assert.ErrorIs(t, err, domain.ErrCardChargeFailed)

	assert.True(t, b.Balance().IsZero())
	assert.Len(t, a.RetrieveFeed(), 1)
	assert.Len(t, b.RetrieveFeed(), 1)
}

func TestPay_Failures(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, nil)

	_, err := app.CreateUser(ctx, "Alice", dec("5.00"), "")
	require.NoError(t, err)
	_, err = app.CreateUser(ctx, "Bobby", decimal.Zero, "")
	require.NoError(t, err)

	_, err = app.Pay(ctx, "Alice", "Nobody", dec("1.00"), "x")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = app.Pay(ctx, "Alice", "Alice", dec("1.00"), "x")
	assert.ErrorIs(t, err, domain.ErrSelfPayment)

	_, err = app.Pay(ctx, "Alice", "Bobby", dec("10.00"), "x")
	assert.ErrorIs(t, err, domain.ErrNoFundingInstrument)

	_, err = app.Pay(ctx, "Alice", "Bobby", dec("-1.00"), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAddFriend(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, nil)

	a, err := app.CreateUser(ctx, "Alice", decimal.Zero, "")
	require.NoError(t, err)
	b, err := app.CreateUser(ctx, "Bobby", decimal.Zero, "")
	require.NoError(t, err)

	require.NoError(t, app.AddFriend(ctx, "Alice", "Bobby"))
	assert.Contains(t, a.Friends(), b.ID)
	assert.Empty(t, b.Friends())

	assert.ErrorIs(t, app.AddFriend(ctx, "Alice", "Bobby"), domain.ErrDuplicateFriend)
	assert.ErrorIs(t, app.AddFriend(ctx, "Alice", "Alice"), domain.ErrSelfFriend)
	assert.ErrorIs(t, app.AddFriend(ctx, "Alice", "Nobody"), domain.ErrUserNotFound)

	lines, err := app.RenderFeed(b.RetrieveFeed(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Bobby registered on 2024-03-01",
		"Alice added Bobby as a friend",
	}, lines)
}

func TestRenderFeed_Emit(t *testing.T) {
	app, sink := newApp(t, nil)
	records := []domain.Activity{
		domain.PaymentActivity{Sender: "Alice", Recipient: "Bobby", Amount: dec("2.5"), Note: "Tea"},
		nil,
	}

	lines, err := app.RenderFeed(records, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice paid Bobby $2.50 for Tea.", "Unsupported message type."}, lines)
	assert.Empty(t, sink.String())

	_, err = app.RenderFeed(records, true)
	require.NoError(t, err)
	assert.Equal(t, "Alice paid Bobby $2.50 for Tea.\nUnsupported message type.\n", sink.String())
}

func TestRun(t *testing.T) {
	app, sink := newApp(t, processor.NewFakeCharger())

	lines, err := app.Run(context.Background())
	require.NoError(t, err)

	want := []string{
		"Bobby registered on 2024-03-01",
		"Bobby paid Carol $5.00 for Coffee.",
		"Carol paid Bobby $15.00 for Lunch.",
	}
	assert.Equal(t, want, lines)
	assert.Equal(t, want[0]+"\n"+want[1]+"\n"+want[2]+"\n", sink.String())

	bobby, err := app.Lookup("Bobby")
	require.NoError(t, err)
	carol, err := app.Lookup("Carol")
	require.NoError(t, err)

	assert.True(t, bobby.Balance().Equal(dec("15.00")))
	assert.True(t, carol.Balance().IsZero())
	assert.Equal(t, []string{"Bobby", "Carol"}, app.Usernames())
	assert.Contains(t, bobby.Friends(), carol.ID)
}

func TestRun_Twice(t *testing.T) {
	app, _ := newApp(t, nil)

	_, err := app.Run(context.Background())
	require.NoError(t, err)

	_, err = app.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}
