package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store keeps the history in a single SQLite file.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	max int
}

// New opens (or creates) the database file and runs migrations.
func New(ctx context.Context, path string, max int, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// One writer; the monitor and the API share it.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	s := &Store{db: db, log: log, max: max}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("history_store_ready", zap.String("driver", "sqlite"), zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS checks (
	id          TEXT PRIMARY KEY,
	target      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	status      TEXT NOT NULL,
	http_status INTEGER,
	detail      TEXT NOT NULL DEFAULT '',
	quiet       INTEGER NOT NULL DEFAULT 0,
	checked_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks (checked_at DESC);

CREATE TABLE IF NOT EXISTS notifications (
	id       TEXT PRIMARY KEY,
	target   TEXT NOT NULL,
	kind     TEXT NOT NULL,
	subject  TEXT NOT NULL,
	sent     INTEGER NOT NULL,
	error    TEXT,
	sent_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications (sent_at DESC);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) AppendCheck(ctx context.Context, r *domain.CheckRecord) error {
	var httpStatus sql.NullInt64
	if r.HTTPStatus != 0 {
		httpStatus = sql.NullInt64{Int64: int64(r.HTTPStatus), Valid: true}
	}
	query := `
INSERT INTO checks (id, target, seq, status, http_status, detail, quiet, checked_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Target, r.Seq, string(r.Status), httpStatus, r.Detail, r.Quiet,
		r.CheckedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	return nil
}

func (s *Store) RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error) {
	query := `
SELECT id, target, seq, status, http_status, detail, quiet, checked_at
FROM checks
ORDER BY checked_at DESC, rowid DESC
LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, repo.ClampLimit(limit, s.max))
	if err != nil {
		return nil, fmt.Errorf("failed to query checks: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckRecord
	for rows.Next() {
		var (
			r          domain.CheckRecord
			status     string
			httpStatus sql.NullInt64
			checkedAt  string
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.Seq, &status, &httpStatus, &r.Detail, &r.Quiet, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		r.Status = domain.Status(status)
		if httpStatus.Valid {
			r.HTTPStatus = int(httpStatus.Int64)
		}
		r.CheckedAt, _ = time.Parse(timeLayout, checkedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AppendNotification(ctx context.Context, r *domain.NotificationRecord) error {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	query := `
INSERT INTO notifications (id, target, kind, subject, sent, error, sent_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Target, string(r.Kind), r.Subject, r.Sent, errText,
		r.SentAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Store) RecentNotifications(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	query := `
SELECT id, target, kind, subject, sent, error, sent_at
FROM notifications
ORDER BY sent_at DESC, rowid DESC
LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, repo.ClampLimit(limit, s.max))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationRecord
	for rows.Next() {
		var (
			r       domain.NotificationRecord
			kind    string
			errText sql.NullString
			sentAt  string
		)
		if err := rows.Scan(&r.ID, &r.Target, &kind, &r.Subject, &r.Sent, &errText, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		r.Kind = domain.NotificationKind(kind)
		r.Error = errText.String
		r.SentAt, _ = time.Parse(timeLayout, sentAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
