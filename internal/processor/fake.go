package processor

import (
	"context"
	"slices"
	"sync"

	"github.com/Proton-105/minivenmo/internal/domain"
)

// FakeCharger replays scripted results in order and records every request.
// Once the script runs out, charges succeed.
type FakeCharger struct {
	mu      sync.Mutex
	results []error
	calls   []domain.ChargeRequest
}

func NewFakeCharger(results ...error) *FakeCharger {
	return &FakeCharger{results: results}
}

// Script appends results to be returned by the next charges.
func (f *FakeCharger) Script(results ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.results = append(f.results, results...)
}

func (f *FakeCharger) Charge(_ context.Context, req domain.ChargeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if len(f.results) == 0 {
		return nil
	}

	err := f.results[0]
	f.results = f.results[1:]

	return err
}

// Calls returns the requests received so far.
func (f *FakeCharger) Calls() []domain.ChargeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}
