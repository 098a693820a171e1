package repo

import (
	"context"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// NotificationStore keeps every delivery attempt, successful or not. Failed
// attempts carry the error text so an operator can see why mail never came.
type NotificationStore interface {
	AppendNotification(ctx context.Context, r *domain.NotificationRecord) error
	// RecentNotifications returns up to limit records, newest first.
	RecentNotifications(ctx context.Context, limit int) ([]domain.NotificationRecord, error)
}
