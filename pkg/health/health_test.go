package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func getStatus(t *testing.T, handler http.HandlerFunc) (int, probeStatus) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body probeStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLiveEndpointNoProbes(t *testing.T) {
	h := New()

	code, body := getStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadyEndpointRequiresSetReady(t *testing.T) {
	h := New()

	code, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks, "_readiness")

	h.SetReady(true)
	code, body = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestProbeFailureStreak(t *testing.T) {
	p := &probe{name: "flaky", timeout: time.Second, fn: func(context.Context) error {
		return errors.New("down")
	}}
	ctx := context.Background()

	// One or two failures are tolerated.
	p.exec(ctx)
	p.exec(ctx)
	_, bad := p.failure()
	assert.False(t, bad)

	p.exec(ctx)
	msg, bad := p.failure()
	require.True(t, bad)
	assert.Equal(t, "down", msg)

	// A single success recovers.
	p.fn = func(context.Context) error { return nil }
	p.exec(ctx)
	_, bad = p.failure()
	assert.False(t, bad)
}

func TestStartRunsProbes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	h := New()
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestIsReadyReflectsProbeState(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	h.SetReady(true)

	assert.True(t, h.IsReady(), "probe has not failed enough yet")

	for _, p := range h.readiness {
		for range failureStreak {
			p.exec(context.Background())
		}
	}

	assert.False(t, h.IsReady())

	code, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", body.Checks["db"])
}
