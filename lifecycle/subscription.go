package lifecycle

import (
	"context"
	"time"

	"commitbot/models"

	"go.uber.org/zap"
)

// subscriptionPhase spends one banked day for every in-chat member without a paid
// subscription. Members reaching zero are scheduled for the removal phase, which
// sends the single removal message.
func (p *Processor) subscriptionPhase(ctx context.Context, snap *Snapshot, now time.Time, stats *Stats, pending *RemovalSet) {
	snap.Each(func(m *models.Member) {
		if !m.InChat || m.SubscriptionActive {
			return
		}

		if m.SubscriptionDaysLeft <= 0 {
			// Leftover state: in chat with nothing to spend.
			p.persist(ctx, stats, m, models.Fields{models.ColExpiresAt: now})
			pending.Add(m.ID)
			return
		}

		left := m.SubscriptionDaysLeft - 1
		fields := models.Fields{models.ColSubscriptionDaysLeft: left}

		switch {
		case left == p.cfg.ReminderDays:
			p.persist(ctx, stats, m, fields)
			p.notify(ctx, stats, m, subscriptionReminderMessage(left, m.Club))
			stats.SubscriptionWarned = append(stats.SubscriptionWarned, entryOf(m))
		case left == 1:
			p.persist(ctx, stats, m, fields)
			p.notify(ctx, stats, m, subscriptionLastDayMessage())
			stats.SubscriptionWarned = append(stats.SubscriptionWarned, entryOf(m))
		case left == 0:
			fields[models.ColExpiresAt] = now
			p.persist(ctx, stats, m, fields)
			pending.Add(m.ID)
		default:
			p.persist(ctx, stats, m, fields)
		}
		p.metrics.IncMemberAction("subscription_day_spent")
	})

	p.logger.Info("Subscription phase finished",
		zap.Int("warned", len(stats.SubscriptionWarned)),
		zap.Int("scheduled_removals", pending.Len()))
}
