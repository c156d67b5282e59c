package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"commitbot/models"
)

// PauseDateLayout is how pause end dates appear in reports.
const PauseDateLayout = "02.01.2006"

// Entry identifies a member in a report list.
type Entry struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle,omitempty"`
}

// PausedEntry is a member still inside a pause window.
type PausedEntry struct {
	Entry
	Until string `json:"until"`
}

// DangerousCase is an informational risk flag.
type DangerousCase struct {
	Entry
	Reason string `json:"reason"`
}

// StepResult is the outcome of one side effect for one member.
type StepResult struct {
	MemberID int64  `json:"member_id"`
	Step     string `json:"step"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool {
	return r.Err == nil
}

// Stats accumulates the outcomes of one daily run.
type Stats struct {
	TotalActive int `json:"total_active"`
	Posted      int `json:"posted"`
	NotPosted   int `json:"not_posted"`

	NewStrikes          []Entry         `json:"new_strikes"`
	AtRisk              []Entry         `json:"at_risk"`
	AutoPaused          []Entry         `json:"auto_paused"`
	PauseCompleted      []Entry         `json:"pause_completed"`
	PauseExpiredRemoved []Entry         `json:"pause_expired_removed"`
	CurrentlyPaused     []PausedEntry   `json:"currently_paused"`
	SubscriptionWarned  []Entry         `json:"subscription_warned"`
	SubscriptionRemoved []Entry         `json:"subscription_removed"`
	Dangerous           []DangerousCase `json:"dangerous"`

	Failures []StepResult `json:"failures"`
}

// NewStats creates an empty aggregator.
func NewStats() *Stats {
	return &Stats{}
}

func entryOf(m *models.Member) Entry {
	return Entry{ID: m.ID, Handle: m.Handle}
}

func (s *Stats) addPaused(m *models.Member, until time.Time) {
	s.CurrentlyPaused = append(s.CurrentlyPaused, PausedEntry{Entry: entryOf(m), Until: until.Format(PauseDateLayout)})
}

func (s *Stats) addDangerous(m *models.Member, reason string) {
	s.Dangerous = append(s.Dangerous, DangerousCase{Entry: entryOf(m), Reason: reason})
}

func (s *Stats) addFailure(r StepResult) {
	if r.Err != nil && r.Error == "" {
		r.Error = r.Err.Error()
	}
	s.Failures = append(s.Failures, r)
}

// Summary renders a short plain-text overview.
func (s *Stats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active: %d, posted: %d, missed: %d\n", s.TotalActive, s.Posted, s.NotPosted)
	writeList(&b, "New strikes", s.NewStrikes)
	writeList(&b, "At risk (3 strikes)", s.AtRisk)
	writeList(&b, "Auto-paused", s.AutoPaused)
	writeList(&b, "Pause completed", s.PauseCompleted)
	writeList(&b, "Removed after pause", s.PauseExpiredRemoved)
	if len(s.CurrentlyPaused) > 0 {
		items := make([]string, 0, len(s.CurrentlyPaused))
		for _, p := range s.CurrentlyPaused {
			items = append(items, fmt.Sprintf("%s (until %s)", p.Entry.Name(), p.Until))
		}
		fmt.Fprintf(&b, "On pause (%d): %s\n", len(items), strings.Join(items, ", "))
	}
	writeList(&b, "Subscription warned", s.SubscriptionWarned)
	writeList(&b, "Subscription removed", s.SubscriptionRemoved)
	if len(s.Dangerous) > 0 {
		items := make([]string, 0, len(s.Dangerous))
		for _, d := range s.Dangerous {
			items = append(items, fmt.Sprintf("%s: %s", d.Entry.Name(), d.Reason))
		}
		fmt.Fprintf(&b, "Dangerous cases (%d): %s\n", len(items), strings.Join(items, "; "))
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "Failed steps: %d\n", len(s.Failures))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Name renders the entry for humans.
func (e Entry) Name() string {
	if e.Handle != "" {
		return "@" + e.Handle
	}
	return fmt.Sprintf("%d", e.ID)
}

func writeList(b *strings.Builder, title string, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	fmt.Fprintf(b, "%s (%d): %s\n", title, len(entries), strings.Join(names, ", "))
}

// WeeklyStats accumulates the outcomes of one weekly run.
type WeeklyStats struct {
	TotalActive int     `json:"total_active"`
	Posted      int     `json:"posted"`
	NotPosted   int     `json:"not_posted"`
	Paused      int     `json:"paused"`
	Posters     []Entry `json:"posters"`
	Missed      []Entry `json:"missed"`

	Failures []StepResult `json:"failures"`
}

func (w *WeeklyStats) addFailure(r StepResult) {
	if r.Err != nil && r.Error == "" {
		r.Error = r.Err.Error()
	}
	w.Failures = append(w.Failures, r)
}

// Summary renders a short plain-text overview.
func (w *WeeklyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly active: %d, posted: %d, missed: %d, on pause: %d\n",
		w.TotalActive, w.Posted, w.NotPosted, w.Paused)
	writeList(&b, "Posted this week", w.Posters)
	writeList(&b, "Missed this week", w.Missed)
	if len(w.Failures) > 0 {
		fmt.Fprintf(&b, "Failed steps: %d\n", len(w.Failures))
	}
	return strings.TrimRight(b.String(), "\n")
}
