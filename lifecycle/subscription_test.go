package lifecycle_test

import (
	"testing"

	"commitbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bankedMember is a daily poster living off saved days.
func bankedMember(id int64, days int) *models.Member {
	m := dailyMember(id)
	m.SubscriptionActive = false
	m.SubscriptionDaysLeft = days
	m.PostToday = true
	return m
}

func TestSubscriptionLastDayRemovesWithSingleMessage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(), bankedMember(1, 1))

	result := h.runDaily(t)

	m := h.store.get(t, 1)
	assert.Equal(t, 0, m.SubscriptionDaysLeft)
	assert.False(t, m.InChat)
	require.NotNil(t, m.ExpiresAt)
	assert.True(t, runTime.Equal(*m.ExpiresAt))
	require.NotNil(t, m.LeftAt)

	assert.Equal(t, []int64{1}, ids(result.Stats.SubscriptionRemoved))
	assert.Empty(t, result.Stats.SubscriptionWarned)
	assert.Equal(t, []int64{1}, h.gateway.removed)
	assert.Len(t, h.gateway.messages(1), 1, "only the removal message, no last-day notice")
}

func TestSubscriptionDecrement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		days       int
		club       bool
		wantWarned bool
		wantText   string
	}{
		{name: "reminder threshold", days: testReminderDays + 1, wantWarned: true, wantText: "run out in 3 days. Renew"},
		{name: "reminder threshold club", days: testReminderDays + 1, club: true, wantWarned: true, wantText: "club member"},
		{name: "last day", days: 2, wantWarned: true, wantText: "last saved participation day"},
		{name: "silent", days: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			member := bankedMember(1, tt.days)
			member.Club = tt.club
			h := newHarness(t, testConfig(), member)

			result := h.runDaily(t)

			m := h.store.get(t, 1)
			assert.Equal(t, tt.days-1, m.SubscriptionDaysLeft)
			assert.True(t, m.InChat)
			assert.Nil(t, m.ExpiresAt)
			assert.Empty(t, result.Stats.SubscriptionRemoved)

			if tt.wantWarned {
				assert.Equal(t, []int64{1}, ids(result.Stats.SubscriptionWarned))
				msgs := h.gateway.messages(1)
				require.Len(t, msgs, 1)
				assert.Contains(t, msgs[0], tt.wantText)
			} else {
				assert.Empty(t, result.Stats.SubscriptionWarned)
				assert.Empty(t, h.gateway.messages(1))
			}
		})
	}
}

func TestSubscriptionLeftoverZeroIsRemoved(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(), bankedMember(1, 0))

	result := h.runDaily(t)

	m := h.store.get(t, 1)
	assert.Equal(t, 0, m.SubscriptionDaysLeft)
	assert.False(t, m.InChat)
	require.NotNil(t, m.ExpiresAt)
	assert.Equal(t, []int64{1}, ids(result.Stats.SubscriptionRemoved))
	assert.Len(t, h.gateway.messages(1), 1)
}

func TestSubscriptionSkipsActiveAndAbsentMembers(t *testing.T) {
	t.Parallel()
	active := bankedMember(1, 5)
	active.SubscriptionActive = true
	absent := bankedMember(2, 5)
	absent.InChat = false
	h := newHarness(t, testConfig(), active, absent)

	result := h.runDaily(t)

	assert.Equal(t, 5, h.store.get(t, 1).SubscriptionDaysLeft)
	assert.Equal(t, 5, h.store.get(t, 2).SubscriptionDaysLeft)
	assert.Empty(t, result.Stats.SubscriptionRemoved)
	assert.Empty(t, h.gateway.removed)
}

func TestSubscriptionProperty(t *testing.T) {
	t.Parallel()

	for days := 1; days <= 12; days++ {
		h := newHarness(t, testConfig(), bankedMember(1, days))
		h.runDaily(t)
		m := h.store.get(t, 1)

		if days-1 > 0 {
			assert.Equal(t, days-1, m.SubscriptionDaysLeft, "days=%d", days)
			assert.True(t, m.InChat, "days=%d", days)
		} else {
			assert.Equal(t, 0, m.SubscriptionDaysLeft, "days=%d", days)
			assert.False(t, m.InChat, "days=%d", days)
		}
	}
}

func TestPauseRemovalAndSubscriptionRemovalAreExclusive(t *testing.T) {
	t.Parallel()
	// Penalty pause expired and no days left: removed once, by the pause path.
	member := bankedMember(1, 0)
	member.PostToday = false
	member.StrikesCount = 4
	member.PauseStartedAt = timeRef(runTime.AddDate(0, 0, -7))
	member.PauseUntil = timeRef(runTime.AddDate(0, 0, -1))
	h := newHarness(t, testConfig(), member)

	result := h.runDaily(t)

	assert.Equal(t, []int64{1}, ids(result.Stats.PauseExpiredRemoved))
	assert.Empty(t, result.Stats.SubscriptionRemoved)
	assert.Equal(t, []int64{1}, h.gateway.removed)
	assert.Len(t, h.gateway.messages(1), 1)
}
