package domain

import (
	"context"
	"time"
)

// HoldScheduler keeps one pending release per held screening seat. A later
// Schedule for the same seat replaces the earlier deadline.
type HoldScheduler interface {
	Schedule(ctx context.Context, screeningSeatID int, at time.Time) error
	Cancel(ctx context.Context, screeningSeatIDs ...int) error
	// PopDue removes and returns every seat whose release time is at or
	// before now.
	PopDue(ctx context.Context, now time.Time) ([]int, error)
}
