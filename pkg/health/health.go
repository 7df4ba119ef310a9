// Package health exposes Kubernetes-style liveness and readiness probes.
//
// Probes are registered once during startup and then executed together on a
// single background ticker. A probe flips to failing only after it has
// failed failureStreak consecutive runs, so a transient hiccup does not take
// the service out of rotation; a single success flips it back.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// failureStreak is how many consecutive failures mark a probe unhealthy.
const failureStreak = 3

// probe is a single registered check plus its observed state. The streak
// counter is only touched by the scheduler goroutine; failing and lastErr
// are shared with the HTTP handlers and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	streak  int
	failing atomic.Bool
	lastErr atomic.Pointer[string]
}

func (p *probe) exec(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.fn(ctx); err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.streak++
		if p.streak >= failureStreak {
			p.failing.Store(true)
		}
		return
	}

	p.streak = 0
	p.failing.Store(false)
	p.lastErr.Store(nil)
}

// failure returns the probe's last error message when it is unhealthy.
func (p *probe) failure() (string, bool) {
	if !p.failing.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "probe is unhealthy", true
}

// Health holds the service's probes and its manual readiness flag.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health with no probes. The service starts not ready; call
// SetReady(true) once initialization completes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for /livez. Liveness probes detect a
// wedged process: goroutine leaks, runaway GC pauses.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &probe{name: name, timeout: timeout, fn: check})
}

// AddReadinessCheck registers a probe for /readyz. Readiness probes cover
// dependencies the service cannot serve without, such as the database.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &probe{name: name, timeout: timeout, fn: check})
}

// Start launches the scheduler goroutine that executes every probe once
// immediately and then on each interval tick. Register all probes before
// calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for _, p := range probes {
				p.exec(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// SetReady sets the manual readiness flag. Flip it to false at the start of
// graceful shutdown so load balancers stop routing new traffic here.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// probe is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, p := range h.readiness {
		if p.failing.Load() {
			return false
		}
	}
	return true
}

// Stop cancels the scheduler goroutine. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while all liveness probes
// pass, 503 with per-probe failures otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.liveness...)
	h.mu.RUnlock()

	writeProbeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 only when the service is marked ready
// and all readiness probes pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.readiness...)
	h.mu.RUnlock()

	failed := failures(probes)
	if !h.ready.Load() {
		failed = append(failed, failedProbe{name: "_readiness", message: "service is not ready"})
	}
	writeProbeStatus(w, failed)
}

type failedProbe struct {
	name    string
	message string
}

func failures(probes []*probe) []failedProbe {
	var failed []failedProbe
	for _, p := range probes {
		if msg, bad := p.failure(); bad {
			failed = append(failed, failedProbe{name: p.name, message: msg})
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].name < failed[j].name })
	return failed
}

func writeProbeStatus(w http.ResponseWriter, failed []failedProbe) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failed {
			e.FieldStart(f.name)
			e.Str(f.message)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	if len(failed) == 0 {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write(e.Bytes())
}
