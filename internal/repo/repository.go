package repo

import (
	"context"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// DefaultLimit caps history queries that do not ask for a size.
const DefaultLimit = 50

// Ports (interfaces) for the audit trail. Nothing here is read back into the
// monitor's state; the history only feeds the status API.
type CheckStore interface {
	AppendCheck(ctx context.Context, r *domain.CheckRecord) error
	// RecentChecks returns up to limit records, newest first.
	RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error)
}

type Store interface {
	CheckStore
	NotificationStore
	Close() error
}

// ClampLimit maps a caller-supplied limit onto [1, max].
func ClampLimit(limit, max int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
