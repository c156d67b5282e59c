package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned for a cycle name other than daily or weekly.
var ErrUnknownKind = errors.New("unknown cycle kind")

// Runner is implemented by Processor and consumed by the scheduler, the HTTP
// surface and the operator commands.
type Runner interface {
	RunDailyCycle(ctx context.Context, opts RunOptions) (*Result, error)
	RunWeeklyCycle(ctx context.Context, opts RunOptions) (*Result, error)
}

// ParseKind maps a user supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Run dispatches to the entry point for kind.
func Run(ctx context.Context, r Runner, kind Kind, opts RunOptions) (*Result, error) {
	switch kind {
	case KindDaily:
		return r.RunDailyCycle(ctx, opts)
	case KindWeekly:
		return r.RunWeeklyCycle(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
