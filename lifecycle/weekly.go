package lifecycle

import (
	"context"
	"fmt"

	"commitbot/models"

	"go.uber.org/zap"
)

// RunWeeklyCycle credits weekly members who posted and resets their post_today flag.
// No strike, pause or subscription logic applies to this cadence.
func (p *Processor) RunWeeklyCycle(ctx context.Context, opts RunOptions) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx = detach(ctx)

	now := p.now().In(p.cfg.Location)
	result := &Result{Kind: KindWeekly, StartedAt: now}
	logger := p.logger.With(zap.String("kind", string(KindWeekly)))

	day, proceed := p.claim(ctx, KindWeekly, now, opts, logger)
	if !proceed {
		result.Skipped = true
		p.complete(ctx, result, logger)
		return result, nil
	}

	snapshot, err := p.loadSnapshot(ctx)
	if err != nil {
		p.release(ctx, KindWeekly, day, logger)
		result.Error = err.Error()
		logger.Error("Aborting run, snapshot load failed", zap.Error(err))
		p.complete(ctx, result, logger)
		return result, fmt.Errorf("%w: %w", ErrSnapshotLoad, err)
	}

	stats := &WeeklyStats{}
	snapshot.Each(func(m *models.Member) {
		if m.Pace != models.PaceWeekly || !m.InChat {
			return
		}
		if m.IsPaused(now) {
			stats.Paused++
			return
		}
		stats.TotalActive++

		if !m.PostToday {
			stats.NotPosted++
			stats.Missed = append(stats.Missed, entryOf(m))
			return
		}

		stats.Posted++
		stats.Posters = append(stats.Posters, entryOf(m))
		p.persist(ctx, stats, m, models.Fields{
			models.ColUnitsCount:            m.UnitsCount + 1,
			models.ColConsecutivePostsCount: m.ConsecutivePostsCount + 1,
			models.ColStrikesCount:          0,
			models.ColLastPostDate:          now,
		})
		p.metrics.IncMemberAction("weekly_post")
	})

	// Reset weekly members only.
	snapshot.Each(func(m *models.Member) {
		if m.Pace == models.PaceWeekly && m.PostToday {
			p.persist(ctx, stats, m, models.Fields{models.ColPostToday: false})
		}
	})

	if p.cfg.GroupThreadID != "" && stats.TotalActive > 0 {
		err := p.gateway.SendGroup(ctx, weeklySummaryMessage(stats), p.cfg.GroupThreadID)
		p.record(stats, StepResult{Step: StepGroup, Err: err})
	}

	result.Weekly = stats
	p.complete(ctx, result, logger)
	return result, nil
}
