package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"commitbot/lifecycle"
	"commitbot/models"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRunner struct {
	mu    sync.Mutex
	kinds []lifecycle.Kind
	err   error
}

func (f *fakeRunner) record(kind lifecycle.Kind) (*lifecycle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	if f.err != nil {
		return &lifecycle.Result{Kind: kind, Error: f.err.Error()}, f.err
	}
	return &lifecycle.Result{Kind: kind}, nil
}

func (f *fakeRunner) RunDailyCycle(_ context.Context, _ lifecycle.RunOptions) (*lifecycle.Result, error) {
	return f.record(lifecycle.KindDaily)
}

func (f *fakeRunner) RunWeeklyCycle(_ context.Context, _ lifecycle.RunOptions) (*lifecycle.Result, error) {
	return f.record(lifecycle.KindWeekly)
}

func TestNewSchedulerRegistersBothCycles(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	s, err := NewScheduler(runner, models.ScheduleConfig{Daily: "0 0 * * *", Weekly: "55 23 * * 0"}, loc, zaptest.NewLogger(t))
	require.NoError(t, err)

	entries := s.cron.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, loc, s.cron.Location())

	for _, e := range entries {
		e.Job.Run()
	}
	assert.ElementsMatch(t, []lifecycle.Kind{lifecycle.KindDaily, lifecycle.KindWeekly}, runner.kinds)
}

func TestWeeklyTriggerPrecedesDailyReset(t *testing.T) {
	t.Parallel()
	weekly, err := cron.ParseStandard("55 23 * * 0")
	require.NoError(t, err)
	daily, err := cron.ParseStandard("0 0 * * *")
	require.NoError(t, err)

	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	w, d := weekly.Next(sunday), daily.Next(sunday)
	assert.True(t, w.Before(d))
	assert.Equal(t, 5*time.Minute, d.Sub(w))
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()
	_, err := NewScheduler(&fakeRunner{}, models.ScheduleConfig{Daily: "not a spec", Weekly: "55 23 * * 0"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily")
}

func TestSchedulerRunSurvivesFailure(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{err: errors.New("db down")}
	s, err := NewScheduler(runner, models.ScheduleConfig{Daily: "@daily", Weekly: "@weekly"}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.run(lifecycle.KindDaily)
	assert.Equal(t, []lifecycle.Kind{lifecycle.KindDaily}, runner.kinds)
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	s, err := NewScheduler(&fakeRunner{}, models.ScheduleConfig{Daily: "@daily", Weekly: "@weekly"}, nil, nil)
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
