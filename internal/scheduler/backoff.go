package scheduler

import (
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

type BackoffPolicy struct {
	RateLimitPauseMin time.Duration
	RateLimitPauseMax time.Duration
	ErrorThreshold    int
	ErrorCooldown     time.Duration
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		RateLimitPauseMin: 60 * time.Minute,
		RateLimitPauseMax: 90 * time.Minute,
		ErrorThreshold:    5,
		ErrorCooldown:     30 * time.Minute,
	}
}

type BackoffKind int

const (
	BackoffNone BackoffKind = iota
	BackoffRateLimit
	BackoffErrorStreak
)

func (k BackoffKind) String() string {
	switch k {
	case BackoffRateLimit:
		return "rate_limit"
	case BackoffErrorStreak:
		return "error_streak"
	default:
		return "none"
	}
}

// BackoffDecision tells the loop whether this cycle ends in a cool-down.
type BackoffDecision struct {
	Kind   BackoffKind
	Pause  time.Duration
	Streak int
}

// Backoff applies the rate-limit and error-streak policies to the state.
type Backoff struct {
	Policy BackoffPolicy
	rnd    Random
}

func NewBackoff(p BackoffPolicy, r Random) *Backoff {
	if p.ErrorThreshold < 1 {
		p.ErrorThreshold = 1
	}
	if r == nil {
		r = globalRand{}
	}
	return &Backoff{Policy: p, rnd: r}
}

// Assess updates st.ConsecutiveErrors for status s. A rate-limited status
// leaves the streak alone; an error status extends it; anything else resets
// it. When the streak reaches the threshold the decision carries the streak
// length and the caller resets the counter after the cool-down is scheduled.
func (b *Backoff) Assess(st *State, s domain.Status) BackoffDecision {
	switch {
	case s == domain.StatusRateLimited:
		return BackoffDecision{
			Kind:   BackoffRateLimit,
			Pause:  uniform(b.rnd, b.Policy.RateLimitPauseMin, b.Policy.RateLimitPauseMax),
			Streak: st.ConsecutiveErrors,
		}
	case s.IsError():
		st.ConsecutiveErrors++
		if st.ConsecutiveErrors >= b.Policy.ErrorThreshold {
			return BackoffDecision{
				Kind:   BackoffErrorStreak,
				Pause:  b.Policy.ErrorCooldown,
				Streak: st.ConsecutiveErrors,
			}
		}
		return BackoffDecision{Kind: BackoffNone, Streak: st.ConsecutiveErrors}
	default:
		st.ConsecutiveErrors = 0
		return BackoffDecision{Kind: BackoffNone}
	}
}
