package ports

import (
	"context"
	"time"

	"delivery-route-optimizer/internal/domain"
)

// HistoryStore persists summaries of completed optimizations.
type HistoryStore interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
	// List returns a user's latest entries, newest first.
	List(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
	// Stats aggregates all of a user's entries; Recent covers entries created at or after since.
	Stats(ctx context.Context, userID string, since time.Time) (domain.DashboardStats, error)
}
