// Package health reports whether the components MiniVenmo depends on are usable.
package health

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/minivenmo/internal/errors"
)

const statusOK = "OK"

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log *slog.Logger

	mu     sync.RWMutex
	checks map[string]Checkable
}

func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// Check runs all registered checks and returns a status per component:
// "OK" or the failure message.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		c.mu.RLock()
		check := c.checks[name]
		c.mu.RUnlock()

		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
			continue
		}

		results[name] = statusOK
	}

	return results
}

// Healthy reports whether every result is OK.
func Healthy(results map[string]string) bool {
	for _, status := range results {
		if status != statusOK {
			return false
		}
	}

	return true
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to the idempotency store's Redis.
type RedisChecker struct {
	pinger Pinger
}

func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}

	return c.pinger.Ping(ctx).Err()
}

// BreakerReporter is implemented by chargers that guard the processor with a circuit breaker.
type BreakerReporter interface {
	BreakerState() apperrors.State
}

// ProcessorChecker fails while the card processor's breaker is open.
type ProcessorChecker struct {
	breaker BreakerReporter
}

func NewProcessorChecker(breaker BreakerReporter) *ProcessorChecker {
	return &ProcessorChecker{breaker: breaker}
}

func (c *ProcessorChecker) HealthCheck(context.Context) error {
	if c == nil || c.breaker == nil {
		return errors.New("card processor is not configured")
	}

	if state := c.breaker.BreakerState(); state == apperrors.StateOpen {
		return errors.New("card processor circuit is " + state.String())
	}

	return nil
}
