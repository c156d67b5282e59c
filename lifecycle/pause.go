package lifecycle

import (
	"context"
	"time"

	"commitbot/models"

	"go.uber.org/zap"
)

// pauseExpiryPhase resolves members whose pause window has elapsed.
//
// Only the automatic penalty pause leaves strikes at the cap: any post during a pause
// resets strikes through the posting handler. A member reaching expiry with strikes
// still at the cap never redeemed the pause and is removed; everyone else is released.
func (p *Processor) pauseExpiryPhase(ctx context.Context, snap *Snapshot, now time.Time, stats *Stats) {
	snap.Each(func(m *models.Member) {
		if m.PauseUntil == nil {
			return
		}
		if m.PauseUntil.After(now) {
			stats.addPaused(m, m.PauseUntil.In(now.Location()))
			return
		}

		if m.StrikesCount == models.MaxStrikes {
			p.removeAfterPause(ctx, m, now, stats)
			return
		}

		p.persist(ctx, stats, m, models.ClearPause())
		stats.PauseCompleted = append(stats.PauseCompleted, entryOf(m))
		p.metrics.IncMemberAction("pause_completed")
	})

	p.logger.Info("Pause expiry phase finished",
		zap.Int("paused", len(stats.CurrentlyPaused)),
		zap.Int("completed", len(stats.PauseCompleted)),
		zap.Int("removed", len(stats.PauseExpiredRemoved)))
}

func (p *Processor) removeAfterPause(ctx context.Context, m *models.Member, now time.Time, stats *Stats) {
	// The data update proceeds whether or not the chat removal worked.
	p.removeFromChat(ctx, stats, m)

	fields := models.Fields{
		models.ColInChat:       false,
		models.ColStrikesCount: 0,
		models.ColLeftAt:       now,
	}.Merge(models.ClearPause())
	p.persist(ctx, stats, m, fields)
	p.notify(ctx, stats, m, pauseExpiredRemovalMessage())

	stats.PauseExpiredRemoved = append(stats.PauseExpiredRemoved, entryOf(m))
	p.metrics.IncMemberAction("pause_expired_removed")
}
