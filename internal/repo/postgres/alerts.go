package postgres

import (
	"context"
	"fmt"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/repo"
)

func (s *Store) AppendNotification(ctx context.Context, r *domain.NotificationRecord) error {
	const q = `
		INSERT INTO notifications (id, target, kind, subject, sent, error, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	if _, err := s.pool.Exec(ctx, q, r.ID, r.Target, string(r.Kind), r.Subject, r.Sent, errText, r.SentAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) RecentNotifications(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	const q = `
		SELECT id, target, kind, subject, sent, error, sent_at
		  FROM notifications
		 ORDER BY sent_at DESC
		 LIMIT $1
	`
	rows, err := s.pool.Query(ctx, q, repo.ClampLimit(limit, s.max))
	if err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationRecord
	for rows.Next() {
		var (
			r       domain.NotificationRecord
			kind    string
			errText *string
		)
		if err := rows.Scan(&r.ID, &r.Target, &kind, &r.Subject, &r.Sent, &errText, &r.SentAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		r.Kind = domain.NotificationKind(kind)
		if errText != nil {
			r.Error = *errText
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
