package lifecycle

import (
	"context"
	"time"

	"commitbot/models"

	"go.uber.org/zap"
)

// strikePhase escalates strikes for daily members who did not post.
func (p *Processor) strikePhase(ctx context.Context, snap *Snapshot, now time.Time, stats *Stats) {
	snap.Each(func(m *models.Member) {
		if m.Pace != models.PaceDaily || !m.InChat {
			return
		}
		stats.TotalActive++

		if m.PostToday {
			stats.Posted++
			return
		}
		// Strikes do not accrue while paused. A pause ending today is resolved by
		// the pause-expiry phase; strikes resume from the next run.
		if m.PauseUntil != nil {
			return
		}

		stats.NotPosted++
		p.applyStrike(ctx, m, now, stats)
	})

	p.logger.Info("Strike phase finished",
		zap.Int("active", stats.TotalActive),
		zap.Int("posted", stats.Posted),
		zap.Int("new_strikes", len(stats.NewStrikes)))
}

func (p *Processor) applyStrike(ctx context.Context, m *models.Member, now time.Time, stats *Stats) {
	// A row already at the cap without a pause gets the auto-pause re-applied.
	strikes := min(m.StrikesCount+1, models.MaxStrikes)
	fields := models.Fields{
		models.ColStrikesCount:          strikes,
		models.ColConsecutivePostsCount: 0,
	}

	if strikes == models.MaxStrikes {
		until := now.AddDate(0, 0, p.cfg.AutoPauseDays)
		fields[models.ColPauseStartedAt] = now
		fields[models.ColPauseUntil] = until
		fields[models.ColPauseDays] = p.cfg.AutoPauseDays
	}

	p.persist(ctx, stats, m, fields)
	p.notify(ctx, stats, m, strikeMessage(strikes, p.cfg.AutoPauseDays))

	stats.NewStrikes = append(stats.NewStrikes, entryOf(m))
	p.metrics.IncMemberAction("strike")

	switch strikes {
	case 3:
		stats.AtRisk = append(stats.AtRisk, entryOf(m))
	case models.MaxStrikes:
		stats.AutoPaused = append(stats.AutoPaused, entryOf(m))
		p.metrics.IncMemberAction("auto_pause")
	}
}
