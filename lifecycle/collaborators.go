package lifecycle

import (
	"context"

	"commitbot/models"
)

// MemberStore is the durable member table.
type MemberStore interface {
	GetAll(ctx context.Context) ([]*models.Member, error)
	Update(ctx context.Context, id int64, fields models.Fields) error
}

// Messenger delivers notifications and performs chat removals.
type Messenger interface {
	SendDirect(ctx context.Context, memberID int64, text string) (string, error)
	SendGroup(ctx context.Context, text, threadID string) error
	RemoveWithoutBan(ctx context.Context, memberID int64) error
}

// Reporter delivers the run report to operators.
type Reporter interface {
	SendRunReport(ctx context.Context, result *Result) error
}

// RunLedger stamps cycle runs per calendar day.
type RunLedger interface {
	Claim(ctx context.Context, kind, day string) (bool, error)
	Release(ctx context.Context, kind, day string) error
}
