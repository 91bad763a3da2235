// Package health exposes liveness and readiness probe endpoints backed by
// periodically polled checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc
}

// Health polls registered checks in the background and serves their combined
// state on /livez and /readyz style endpoints. A service starts not-ready;
// call SetReady(true) once initialization is done and SetReady(false) to
// drain before shutdown.
type Health struct {
	ready  atomic.Bool
	cancel context.CancelFunc

	mu        sync.RWMutex
	liveness  []check
	readiness []check
	// failures holds the latest error message per failing check. Checks
	// that pass are absent.
	failures map[string]string
}

func New() *Health {
	return &Health{failures: make(map[string]string)}
}

// AddLivenessCheck registers a probe for /livez. Liveness failures mean the
// process itself is broken (leaks, deadlocks) and should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, probe: probe})
}

// AddReadinessCheck registers a probe for /readyz. Readiness failures mean
// the service should stop receiving traffic until a dependency recovers.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, probe: probe})
}

// Start polls every registered check once immediately and then at the given
// interval, until Stop is called or the context ends. Register all checks
// before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	all := make([]check, 0, len(h.liveness)+len(h.readiness))
	all = append(all, h.liveness...)
	all = append(all, h.readiness...)
	h.mu.Unlock()

	go func() {
		h.poll(ctx, all)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.poll(ctx, all)
			}
		}
	}()
}

func (h *Health) poll(ctx context.Context, checks []check) {
	for _, c := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.probe(probeCtx)
		cancel()

		h.mu.Lock()
		if err != nil {
			h.failures[c.name] = err.Error()
		} else {
			delete(h.failures, c.name)
		}
		h.mu.Unlock()
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Stop ends background polling. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// LiveEndpoint reports 200 {"status":"ok"} while every liveness check
// passes, and 503 with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	failing := h.failing(h.liveness)
	h.mu.RUnlock()

	writeProbe(w, failing)
}

// ReadyEndpoint reports 200 {"status":"ok"} when the service has been marked
// ready and every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	failing := h.failing(h.readiness)
	h.mu.RUnlock()

	if !h.ready.Load() {
		if failing == nil {
			failing = make(map[string]string, 1)
		}
		failing["_readiness"] = "service is not ready"
	}
	writeProbe(w, failing)
}

// failing returns the subset of failures belonging to checks. Caller holds
// at least a read lock.
func (h *Health) failing(checks []check) map[string]string {
	var out map[string]string
	for _, c := range checks {
		msg, ok := h.failures[c.name]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[c.name] = msg
	}
	return out
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeProbe(w http.ResponseWriter, failing map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failing) > 0 {
		resp = probeResponse{Status: "unhealthy", Checks: failing}
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
