package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"commitbot/metrics"
	"commitbot/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Step names used in StepResult and metrics.
const (
	StepPersist = "persist"
	StepNotify  = "notify"
	StepRemove  = "remove"
	StepGroup   = "group"
	StepReport  = "report"
)

// Config tunes the processor.
type Config struct {
	AutoPauseDays       int
	ReminderDays        int
	NewMemberWindowDays int
	SameDayGuard        bool
	LoadRetries         uint64
	LoadRetryInterval   time.Duration
	Location            *time.Location
	GroupThreadID       string
}

// ConfigFromModel converts the loaded configuration.
func ConfigFromModel(lc models.LifecycleConfig, groupThreadID string) (Config, error) {
	loc, err := time.LoadLocation(lc.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load timezone %q: %w", lc.Timezone, err)
	}
	return Config{
		AutoPauseDays:       lc.AutoPauseDays,
		ReminderDays:        lc.ReminderDays,
		NewMemberWindowDays: lc.NewMemberWindowDays,
		SameDayGuard:        lc.SameDayGuard,
		LoadRetries:         lc.LoadRetries,
		LoadRetryInterval:   500 * time.Millisecond,
		Location:            loc,
		GroupThreadID:       groupThreadID,
	}, nil
}

// Processor runs the daily and weekly membership cycles.
type Processor struct {
	store    MemberStore
	gateway  Messenger
	reporter Reporter
	ledger   RunLedger
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time

	mu sync.Mutex
}

// NewProcessor creates a processor. The ledger and metrics are optional.
func NewProcessor(store MemberStore, gateway Messenger, reporter Reporter, cfg Config, logger *zap.Logger) *Processor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:    store,
		gateway:  gateway,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger.Named("lifecycle"),
		now:      time.Now,
	}
}

// WithLedger enables the same-day guard backed by ledger.
func (p *Processor) WithLedger(ledger RunLedger) *Processor {
	p.ledger = ledger
	return p
}

// WithMetrics attaches prometheus counters.
func (p *Processor) WithMetrics(m *metrics.Metrics) *Processor {
	p.metrics = m
	return p
}

// WithClock overrides the time source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// RunDailyCycle loads every member once and applies, in order: strikes, pause expiry,
// subscription decrement, deferred removals, the post_today reset and the dangerous-case
// analysis. Only a snapshot load failure aborts the run.
func (p *Processor) RunDailyCycle(ctx context.Context, opts RunOptions) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx = detach(ctx)

	now := p.now().In(p.cfg.Location)
	result := &Result{Kind: KindDaily, StartedAt: now}
	logger := p.logger.With(zap.String("kind", string(KindDaily)))

	day, proceed := p.claim(ctx, KindDaily, now, opts, logger)
	if !proceed {
		result.Skipped = true
		p.complete(ctx, result, logger)
		return result, nil
	}

	snapshot, err := p.loadSnapshot(ctx)
	if err != nil {
		p.release(ctx, KindDaily, day, logger)
		result.Error = err.Error()
		logger.Error("Aborting run, snapshot load failed", zap.Error(err))
		p.complete(ctx, result, logger)
		return result, fmt.Errorf("%w: %w", ErrSnapshotLoad, err)
	}
	logger.Info("Loaded member snapshot", zap.Int("members", snapshot.Len()))

	stats := NewStats()
	pending := NewRemovalSet()

	p.strikePhase(ctx, snapshot, now, stats)
	p.pauseExpiryPhase(ctx, snapshot, now, stats)
	p.subscriptionPhase(ctx, snapshot, now, stats, pending)
	p.removalPhase(ctx, snapshot, now, stats, pending)
	p.resetPhase(ctx, snapshot, stats)
	p.dangerousCases(snapshot, now, stats)

	result.Stats = stats
	p.complete(ctx, result, logger)
	return result, nil
}

// detach keeps the caller's values but drops its cancellation: a started run
// always finishes every phase.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// claim consults the run ledger. It returns the day key and whether the run should proceed.
func (p *Processor) claim(ctx context.Context, kind Kind, now time.Time, opts RunOptions, logger *zap.Logger) (string, bool) {
	day := now.Format("2006-01-02")
	if !p.cfg.SameDayGuard || p.ledger == nil {
		return day, true
	}

	claimed, err := p.ledger.Claim(ctx, string(kind), day)
	if err != nil {
		// An unreadable ledger must not block the community's daily run.
		logger.Warn("Run ledger unavailable, running without same-day guard", zap.Error(err))
		return day, true
	}
	if !claimed && !opts.Force {
		logger.Info("Cycle already ran today, skipping", zap.String("day", day))
		return day, false
	}
	if !claimed {
		logger.Warn("Forcing a second run for the same day", zap.String("day", day))
	}
	return day, true
}

func (p *Processor) release(ctx context.Context, kind Kind, day string, logger *zap.Logger) {
	if !p.cfg.SameDayGuard || p.ledger == nil {
		return
	}
	if err := p.ledger.Release(ctx, string(kind), day); err != nil {
		logger.Warn("Failed to release run stamp", zap.Error(err))
	}
}

func (p *Processor) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	interval := p.cfg.LoadRetryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(interval),
		backoff.WithMaxInterval(10*interval),
	), p.cfg.LoadRetries)

	var members []*models.Member
	operation := func() error {
		var err error
		members, err = p.store.GetAll(ctx)
		if err != nil {
			p.logger.Warn("Member snapshot load failed", zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return NewSnapshot(members), nil
}

// complete stamps timing, records metrics and hands the result to the reporter.
// Report delivery is best effort.
func (p *Processor) complete(ctx context.Context, result *Result, logger *zap.Logger) {
	result.finish(p.now().In(p.cfg.Location))
	p.metrics.IncCycleRun(string(result.Kind), result.Outcome())
	p.metrics.ObserveCycleDuration(string(result.Kind), result.ExecutionTime())

	logger.Info("Cycle finished",
		zap.String("outcome", result.Outcome()),
		zap.Int64("execution_ms", result.ExecutionTimeMS))

	if result.Skipped || p.reporter == nil {
		return
	}
	if err := p.reporter.SendRunReport(ctx, result); err != nil {
		p.metrics.IncStepFailure(StepReport)
		logger.Error("Failed to deliver run report", zap.Error(err))
	}
}

// failureSink receives StepResults for failed steps.
type failureSink interface {
	addFailure(StepResult)
}

// record logs and counts a step outcome. It returns whether the step succeeded.
func (p *Processor) record(sink failureSink, r StepResult) bool {
	if r.OK() {
		return true
	}
	p.metrics.IncStepFailure(r.Step)
	p.logger.Error("Member step failed",
		zap.Int64("member_id", r.MemberID),
		zap.String("step", r.Step),
		zap.Error(r.Err))
	sink.addFailure(r)
	return false
}

// persist writes fields for m and mirrors them onto the in-memory record.
// The in-memory record is updated even when the write fails so later phases
// act on what this run decided.
func (p *Processor) persist(ctx context.Context, sink failureSink, m *models.Member, fields models.Fields) bool {
	m.Apply(fields)
	err := p.store.Update(ctx, m.ID, fields)
	return p.record(sink, StepResult{MemberID: m.ID, Step: StepPersist, Err: err})
}

func (p *Processor) notify(ctx context.Context, sink failureSink, m *models.Member, text string) bool {
	_, err := p.gateway.SendDirect(ctx, m.ID, text)
	return p.record(sink, StepResult{MemberID: m.ID, Step: StepNotify, Err: err})
}

func (p *Processor) removeFromChat(ctx context.Context, sink failureSink, m *models.Member) bool {
	err := p.gateway.RemoveWithoutBan(ctx, m.ID)
	return p.record(sink, StepResult{MemberID: m.ID, Step: StepRemove, Err: err})
}
