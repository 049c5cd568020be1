package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-rental/internal/resilience"
)

const defaultProbeTimeout = 500 * time.Millisecond

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. It is flipped to false when shutdown begins so
// load balancers drain the instance before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// Probe checks a single dependency. Degraded probes are reported but never
// fail readiness.
type Probe struct {
	Name     string
	Timeout  time.Duration
	Degraded bool
	Check    func(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and reports per-dependency status.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.Probes)+1)
	healthy := ready.Load()
	if !healthy {
		status["server"] = "shutting down"
	}
	for _, p := range h.Probes {
		res := "ok"
		if err := p.run(r.Context()); err != nil {
			res = err.Error()
			if !p.Degraded {
				healthy = false
			}
		}
		status[p.Name] = res
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (p Probe) run(ctx context.Context) error {
	if p.Check == nil {
		return nil
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}

// BreakerProbe reports an open breaker as a degraded dependency.
func BreakerProbe(name string, b *resilience.Breaker) Probe {
	return Probe{
		Name:     name,
		Degraded: true,
		Check: func(context.Context) error {
			if b != nil && b.State() == resilience.Open {
				return resilience.ErrOpenCircuit
			}
			return nil
		},
	}
}
