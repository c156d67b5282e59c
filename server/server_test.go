package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"commitbot/lifecycle"
	"commitbot/metrics"
	"commitbot/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	mu    sync.Mutex
	kinds []lifecycle.Kind
	force []bool
	// ctxErrs holds the run context's error as seen when the run starts.
	ctxErrs []error
	err     error
}

func (f *fakeRunner) run(ctx context.Context, kind lifecycle.Kind, opts lifecycle.RunOptions) (*lifecycle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return &lifecycle.Result{Kind: kind, Error: err.Error()}, err
	}
	f.kinds = append(f.kinds, kind)
	f.force = append(f.force, opts.Force)
	if f.err != nil {
		return &lifecycle.Result{Kind: kind, Error: f.err.Error()}, f.err
	}
	result := &lifecycle.Result{Kind: kind, ExecutionTimeMS: 7}
	if kind == lifecycle.KindDaily {
		result.Stats = &lifecycle.Stats{TotalActive: 2, Posted: 1, NotPosted: 1}
	} else {
		result.Weekly = &lifecycle.WeeklyStats{TotalActive: 1, Posted: 1}
	}
	return result, nil
}

func (f *fakeRunner) RunDailyCycle(ctx context.Context, opts lifecycle.RunOptions) (*lifecycle.Result, error) {
	return f.run(ctx, lifecycle.KindDaily, opts)
}

func (f *fakeRunner) RunWeeklyCycle(ctx context.Context, opts lifecycle.RunOptions) (*lifecycle.Result, error) {
	return f.run(ctx, lifecycle.KindWeekly, opts)
}

func newServer(t *testing.T, runner lifecycle.Runner, secret string) *Server {
	t.Helper()
	return New(runner, models.HTTPConfig{Addr: ":0", Secret: secret}, prometheus.NewRegistry(), zaptest.NewLogger(t))
}

func do(s *Server, method, target, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestTriggerCycle(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s := newServer(t, runner, "s3cret")

	w := do(s, http.MethodPost, "/cycles/daily", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "daily", body["kind"])
	assert.EqualValues(t, 7, body["execution_time_ms"])
	assert.Contains(t, body, "stats")

	w = do(s, http.MethodPost, "/cycles/weekly?force=true", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"weekly":`)

	assert.Equal(t, []lifecycle.Kind{lifecycle.KindDaily, lifecycle.KindWeekly}, runner.kinds)
	assert.Equal(t, []bool{false, true}, runner.force)
}

func TestTriggerCycleOutlivesDisconnectedCaller(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s := newServer(t, runner, "k")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/cycles/daily", nil).WithContext(ctx)
	req.Header.Set(SecretHeader, "k")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.ctxErrs, 1)
	assert.NoError(t, runner.ctxErrs[0])
	assert.Equal(t, []lifecycle.Kind{lifecycle.KindDaily}, runner.kinds)
}

func TestTriggerCycleRejectsRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serverKey  string
		target     string
		secret     string
		wantStatus int
	}{
		{name: "missing secret", serverKey: "k", target: "/cycles/daily", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", serverKey: "k", target: "/cycles/daily", secret: "nope", wantStatus: http.StatusForbidden},
		{name: "not configured", serverKey: "", target: "/cycles/daily", secret: "k", wantStatus: http.StatusServiceUnavailable},
		{name: "unknown kind", serverKey: "k", target: "/cycles/monthly", secret: "k", wantStatus: http.StatusNotFound},
		{name: "bad force", serverKey: "k", target: "/cycles/daily?force=maybe", secret: "k", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{}
			s := newServer(t, runner, tt.serverKey)

			w := do(s, http.MethodPost, tt.target, tt.secret)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), "error")
			assert.Empty(t, runner.kinds)
		})
	}
}

func TestTriggerCycleFailure(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{err: errors.New("failed to load member snapshot")}
	s := newServer(t, runner, "k")

	w := do(s, http.MethodPost, "/cycles/daily", "k")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var result lifecycle.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "failed", result.Outcome())
}

func TestTriggerRequiresPost(t *testing.T) {
	t.Parallel()
	s := newServer(t, &fakeRunner{}, "k")
	w := do(s, http.MethodGet, "/cycles/daily", "k")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.IncCycleRun("daily", "ok")

	s := New(&fakeRunner{}, models.HTTPConfig{Secret: "k"}, registry, nil)

	w := do(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `commitbot_cycle_runs_total{kind="daily",outcome="ok"} 1`))
}
