package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS checks (
  id          TEXT PRIMARY KEY,
  target      TEXT NOT NULL,
  seq         BIGINT NOT NULL,
  status      TEXT NOT NULL,
  http_status INTEGER NULL,
  detail      TEXT NOT NULL DEFAULT '',
  quiet       BOOLEAN NOT NULL DEFAULT false,
  checked_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks (checked_at DESC);

CREATE TABLE IF NOT EXISTS notifications (
  id       TEXT PRIMARY KEY,
  target   TEXT NOT NULL,
  kind     TEXT NOT NULL,
  subject  TEXT NOT NULL,
  sent     BOOLEAN NOT NULL,
  error    TEXT NULL,
  sent_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications (sent_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
	max  int
}

// New connects, pings and applies the schema. max caps history queries.
func New(ctx context.Context, dsn string, max int, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool, log: log, max: max}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("history_store_ready", zap.String("driver", "postgres"))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- CheckStore ----

func (s *Store) AppendCheck(ctx context.Context, r *domain.CheckRecord) error {
	var statusPtr *int
	if r.HTTPStatus != 0 {
		statusPtr = &r.HTTPStatus
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checks
		   (id, target, seq, status, http_status, detail, quiet, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.Target, r.Seq, string(r.Status), statusPtr, r.Detail, r.Quiet, r.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (s *Store) RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, target, seq, status, http_status, detail, quiet, checked_at
		   FROM checks
		  ORDER BY checked_at DESC, seq DESC
		  LIMIT $1`, repo.ClampLimit(limit, s.max))
	if err != nil {
		return nil, fmt.Errorf("recent checks: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckRecord
	for rows.Next() {
		var (
			r        domain.CheckRecord
			status   string
			httpCode *int32
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.Seq, &status, &httpCode, &r.Detail, &r.Quiet, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		r.Status = domain.Status(status)
		if httpCode != nil {
			r.HTTPStatus = int(*httpCode)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
