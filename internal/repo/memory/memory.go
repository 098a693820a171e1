package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Store keeps the most recent records in process memory. Older records are
// dropped once the cap is reached.
type Store struct {
	mu      sync.RWMutex
	cap     int
	checks  []domain.CheckRecord
	notices []domain.NotificationRecord
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 500
	}
	return &Store{
		cap:     capacity,
		checks:  make([]domain.CheckRecord, 0, 128),
		notices: make([]domain.NotificationRecord, 0, 32),
	}
}

func (m *Store) AppendCheck(ctx context.Context, r *domain.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = appendBounded(m.checks, *r, m.cap)
	return nil
}

func (m *Store) AppendNotification(ctx context.Context, r *domain.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = appendBounded(m.notices, *r, m.cap)
	return nil
}

func (m *Store) RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.checks, repo.ClampLimit(limit, m.cap)), nil
}

func (m *Store) RecentNotifications(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.notices, repo.ClampLimit(limit, m.cap)), nil
}

func (m *Store) Close() error { return nil }

func appendBounded[T any](s []T, v T, max int) []T {
	if len(s) >= max {
		copy(s, s[len(s)-max+1:])
		s = s[:max-1]
	}
	return append(s, v)
}

func newestFirst[T any](s []T, limit int) []T {
	if limit > len(s) {
		limit = len(s)
	}
	out := make([]T, 0, limit)
	for i := len(s) - 1; i >= len(s)-limit; i-- {
		out = append(out, s[i])
	}
	return out
}
