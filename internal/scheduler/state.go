package scheduler

import (
	"sync"
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// State is owned by the monitor goroutine and never shared.
type State struct {
	LastStatus        domain.Status
	ConsecutiveErrors int
	CheckCount        int64
	WasQuiet          bool
}

// SuspendPoint names where the loop is waiting.
type SuspendPoint string

const (
	SuspendInterval      SuspendPoint = "interval"
	SuspendRateLimit     SuspendPoint = "rate_limit_cooldown"
	SuspendErrorCooldown SuspendPoint = "error_cooldown"
	SuspendStartupRetry  SuspendPoint = "startup_retry"
	SuspendCycleRetry    SuspendPoint = "cycle_retry"
	SuspendSettle        SuspendPoint = "settle"
)

// Suspension is the wait a cycle ends with. RefreshAfter asks for a session
// refresh once the wait is over.
type Suspension struct {
	Point        SuspendPoint
	Duration     time.Duration
	RefreshAfter bool
}

// Snapshot is a copy of the monitor's view, published for read-only use by
// other goroutines.
type Snapshot struct {
	Target            string         `json:"target"`
	LastStatus        domain.Status  `json:"last_status"`
	LastResult        *domain.Result `json:"last_result,omitempty"`
	CheckCount        int64          `json:"check_count"`
	ConsecutiveErrors int            `json:"consecutive_errors"`
	Quiet             bool           `json:"quiet"`
	QuietWindow       string         `json:"quiet_window"`
	DeferredPending   bool           `json:"deferred_pending"`
	DeferredSince     *time.Time     `json:"deferred_since,omitempty"`
	Phase             SuspendPoint   `json:"phase,omitempty"`
	NextCheckAt       *time.Time     `json:"next_check_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Board holds the latest Snapshot.
type Board struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewBoard() *Board { return &Board{} }

func (b *Board) Publish(s Snapshot) {
	b.mu.Lock()
	b.snap = s
	b.mu.Unlock()
}

func (b *Board) Get() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}
