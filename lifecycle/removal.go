package lifecycle

import (
	"context"
	"time"

	"commitbot/models"

	"go.uber.org/zap"
)

// removalPhase applies the deferred removals collected earlier in the run.
func (p *Processor) removalPhase(ctx context.Context, snap *Snapshot, now time.Time, stats *Stats, pending *RemovalSet) {
	for _, id := range pending.Drain() {
		m, ok := snap.Get(id)
		if !ok {
			p.logger.Warn("Scheduled removal for unknown member", zap.Int64("member_id", id))
			continue
		}

		p.removeFromChat(ctx, stats, m)
		p.persist(ctx, stats, m, models.Fields{
			models.ColInChat: false,
			models.ColLeftAt: now,
		})
		p.notify(ctx, stats, m, subscriptionExpiredMessage())

		stats.SubscriptionRemoved = append(stats.SubscriptionRemoved, entryOf(m))
		p.metrics.IncMemberAction("subscription_removed")
	}

	p.logger.Info("Removal phase finished", zap.Int("removed", len(stats.SubscriptionRemoved)))
}
