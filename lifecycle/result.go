package lifecycle

import (
	"errors"
	"time"
)

// Kind names a cycle.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

// ErrSnapshotLoad aborts a run when the member table cannot be read.
var ErrSnapshotLoad = errors.New("failed to load member snapshot")

// RunOptions tweaks a single invocation.
type RunOptions struct {
	// Force runs the cycle even if it already ran on the same calendar day.
	Force bool
}

// Result is returned by both entry points and serialised as the trigger response body.
type Result struct {
	Kind            Kind         `json:"kind"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
	ExecutionTimeMS int64        `json:"execution_time_ms"`
	Skipped         bool         `json:"skipped"`
	Error           string       `json:"error,omitempty"`
	Stats           *Stats       `json:"stats,omitempty"`
	Weekly          *WeeklyStats `json:"weekly,omitempty"`
}

// ExecutionTime returns how long the run took.
func (r *Result) ExecutionTime() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is a short label used for metrics and logs.
func (r *Result) Outcome() string {
	switch {
	case r.Error != "":
		return "failed"
	case r.Skipped:
		return "skipped"
	default:
		return "ok"
	}
}

// Summary renders the run for chat replies.
func (r *Result) Summary() string {
	switch {
	case r.Error != "":
		return "Run failed: " + r.Error
	case r.Skipped:
		return "Already ran today, skipped."
	case r.Stats != nil:
		return r.Stats.Summary()
	case r.Weekly != nil:
		return r.Weekly.Summary()
	default:
		return "No data."
	}
}

func (r *Result) finish(finished time.Time) {
	r.FinishedAt = finished
	r.ExecutionTimeMS = r.ExecutionTime().Milliseconds()
}
