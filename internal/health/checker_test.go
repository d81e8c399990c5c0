package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/Proton-105/minivenmo/internal/errors"
)

type stubBreaker apperrors.State

func (s stubBreaker) BreakerState() apperrors.State {
	return apperrors.State(s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("ok", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("broken", CheckFunc(func(context.Context) error { return errors.New("down") }))
	c.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("nil", nil)

	results := c.Check(context.Background())

	assert.Equal(t, map[string]string{"ok": "OK", "broken": "down"}, results)
	assert.False(t, Healthy(results))
	assert.True(t, Healthy(map[string]string{"ok": "OK"}))
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	assert.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))

	assert.ErrorIs(t, NewRedisChecker(nil).HealthCheck(context.Background()), redis.ErrClosed)
}

func TestProcessorChecker(t *testing.T) {
	assert.NoError(t, NewProcessorChecker(stubBreaker(apperrors.StateClosed)).HealthCheck(context.Background()))
	assert.NoError(t, NewProcessorChecker(stubBreaker(apperrors.StateHalfOpen)).HealthCheck(context.Background()))
	assert.EqualError(t,
		NewProcessorChecker(stubBreaker(apperrors.StateOpen)).HealthCheck(context.Background()),
		"card processor circuit is open",
	)
	assert.Error(t, NewProcessorChecker(nil).HealthCheck(context.Background()))
}

type mockCheck struct {
	mock.Mock
}

func (m *mockCheck) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestChecker_CallsEveryCheck(t *testing.T) {
	ctx := context.Background()
	first := new(mockCheck)
	first.On("HealthCheck", ctx).Return(nil).Once()
	second := new(mockCheck)
	second.On("HealthCheck", ctx).Return(errors.New("timeout")).Once()

	c := NewChecker(testLogger())
	c.AddCheck("first", first)
	c.AddCheck("second", second)

	results := c.Check(ctx)

	assert.Equal(t, "OK", results["first"])
	assert.Equal(t, "timeout", results["second"])
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}
