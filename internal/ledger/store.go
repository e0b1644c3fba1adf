package ledger

import (
	"context"
	"time"

	"github.com/brightloop/ideaforge/internal/model"
)

// Store is the persistence interface for usage events.
type Store interface {
	// CountRange returns the number of events for subject/kind with
	// created_at in [start, end).
	CountRange(ctx context.Context, subject string, kind model.UsageKind, start, end time.Time) (int, error)

	// Record appends one usage event.
	Record(ctx context.Context, subject string, kind model.UsageKind, at time.Time) (*model.UsageRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
