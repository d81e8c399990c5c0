package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Proton-105/minivenmo/internal/health"
)

const probeTimeout = 2 * time.Second

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// ErrNotReady is returned by Readiness when a dependency check fails.
var ErrNotReady = errors.New("dependencies are not ready")

// Probes answers liveness unconditionally and readiness from a health.Checker.
type Probes struct {
	log     *slog.Logger
	checker *health.Checker
}

func NewProbes(log *slog.Logger, checker *health.Checker) *Probes {
	if log == nil {
		log = slog.Default()
	}
	if checker == nil {
		checker = health.NewChecker(log)
	}

	return &Probes{log: log, checker: checker}
}

func (p *Probes) Liveness(context.Context) error {
	return nil
}

func (p *Probes) Readiness(ctx context.Context) error {
	if !health.Healthy(p.checker.Check(ctx)) {
		return ErrNotReady
	}

	return nil
}

// Register mounts /healthz and /readyz on mux.
func (p *Probes) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		results := p.checker.Check(ctx)
		status := http.StatusOK
		if !health.Healthy(results) {
			status = http.StatusServiceUnavailable
			p.log.Warn("readiness probe failed", slog.Any("checks", results))
		}

		writeStatus(w, status, results)
	})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
