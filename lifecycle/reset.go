package lifecycle

import (
	"context"
	"fmt"
	"time"

	"commitbot/models"

	"go.uber.org/zap"
)

// resetPhase clears post_today for every member. It runs after all phases that read the flag.
func (p *Processor) resetPhase(ctx context.Context, snap *Snapshot, stats *Stats) {
	reset := 0
	snap.Each(func(m *models.Member) {
		if !m.PostToday {
			return
		}
		p.persist(ctx, stats, m, models.Fields{models.ColPostToday: false})
		reset++
	})
	p.logger.Info("Daily reset finished", zap.Int("reset", reset))
}

// dangerousCases flags members one strike away from auto-pause and recent joiners
// who have neither a subscription nor banked days. It never mutates.
func (p *Processor) dangerousCases(snap *Snapshot, now time.Time, stats *Stats) {
	window := time.Duration(p.cfg.NewMemberWindowDays) * 24 * time.Hour

	snap.Each(func(m *models.Member) {
		if m.InChat && m.StrikesCount == 3 {
			stats.addDangerous(m, "3 strikes, one missed day from auto-pause")
		}

		// Recent joiners are checked regardless of in_chat: the subscription phase may
		// have just removed them for having nothing to spend.
		if m.JoinedAt == nil || m.SubscriptionActive || m.SubscriptionDaysLeft > 0 {
			return
		}
		age := now.Sub(*m.JoinedAt)
		if age < 0 || age > window {
			return
		}
		reason := fmt.Sprintf("joined %d days ago without subscription or saved days", int(age.Hours()/24))
		if !m.InChat {
			reason += ", already removed from chat"
		}
		stats.addDangerous(m, reason)
	})
}
