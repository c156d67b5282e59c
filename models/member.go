package models

import "time"

// Pace is the posting cadence a member committed to.
type Pace string

const (
	PaceDaily  Pace = "daily"
	PaceWeekly Pace = "weekly"
)

// MaxStrikes is the top of the strike ladder. Reaching it triggers the auto-pause.
const MaxStrikes = 4

// Member represents one row of the members table.
type Member struct {
	ID     int64  `db:"id"`     // chat user id
	Handle string `db:"handle"` // optional display handle

	InChat    bool   `db:"in_chat"`
	Pace      Pace   `db:"pace"`
	Mode      string `db:"mode"` // content category
	PostToday bool   `db:"post_today"`

	StrikesCount          int `db:"strikes_count"`
	ConsecutivePostsCount int `db:"consecutive_posts_count"`
	UnitsCount            int `db:"units_count"`

	PauseStartedAt *time.Time `db:"pause_started_at"`
	PauseUntil     *time.Time `db:"pause_until"`
	PauseDays      int        `db:"pause_days"`

	// SubscriptionActive is false when the stored value is false or NULL.
	SubscriptionActive   bool       `db:"subscription_active"`
	SubscriptionDaysLeft int        `db:"subscription_days_left"`
	ExpiresAt            *time.Time `db:"expires_at"`

	LastPostDate *time.Time `db:"last_post_date"`
	CreatedAt    time.Time  `db:"created_at"`
	JoinedAt     *time.Time `db:"joined_at"`
	LeftAt       *time.Time `db:"left_at"`
	UpdatedAt    time.Time  `db:"updated_at"`

	Club         bool `db:"club"`
	PublicRemind bool `db:"public_remind"`
}

// IsPaused reports whether the member is inside an active pause window at t.
func (m *Member) IsPaused(t time.Time) bool {
	return m.PauseUntil != nil && m.PauseUntil.After(t)
}

// Member columns accepted by partial updates.
const (
	ColInChat                = "in_chat"
	ColPostToday             = "post_today"
	ColStrikesCount          = "strikes_count"
	ColConsecutivePostsCount = "consecutive_posts_count"
	ColUnitsCount            = "units_count"
	ColPauseStartedAt        = "pause_started_at"
	ColPauseUntil            = "pause_until"
	ColPauseDays             = "pause_days"
	ColSubscriptionDaysLeft  = "subscription_days_left"
	ColExpiresAt             = "expires_at"
	ColLastPostDate          = "last_post_date"
	ColLeftAt                = "left_at"
)

// Fields is a partial member update keyed by column. A nil value writes NULL.
type Fields map[string]any

// ClearPause returns the fields that reset every pause column.
func ClearPause() Fields {
	return Fields{
		ColPauseStartedAt: nil,
		ColPauseUntil:     nil,
		ColPauseDays:      0,
	}
}

// Merge copies other into f and returns f.
func (f Fields) Merge(other Fields) Fields {
	for k, v := range other {
		f[k] = v
	}
	return f
}

// Apply writes fields onto the in-memory record using the same column names the store accepts.
// Unknown columns are ignored.
func (m *Member) Apply(f Fields) {
	for col, v := range f {
		switch col {
		case ColInChat:
			m.InChat, _ = v.(bool)
		case ColPostToday:
			m.PostToday, _ = v.(bool)
		case ColStrikesCount:
			m.StrikesCount, _ = v.(int)
		case ColConsecutivePostsCount:
			m.ConsecutivePostsCount, _ = v.(int)
		case ColUnitsCount:
			m.UnitsCount, _ = v.(int)
		case ColPauseDays:
			m.PauseDays, _ = v.(int)
		case ColSubscriptionDaysLeft:
			m.SubscriptionDaysLeft, _ = v.(int)
		case ColPauseStartedAt:
			m.PauseStartedAt = asTime(v)
		case ColPauseUntil:
			m.PauseUntil = asTime(v)
		case ColExpiresAt:
			m.ExpiresAt = asTime(v)
		case ColLastPostDate:
			m.LastPostDate = asTime(v)
		case ColLeftAt:
			m.LeftAt = asTime(v)
		}
	}
}

func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	default:
		return nil
	}
}
