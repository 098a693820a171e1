package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/notify"
)

// ErrStartupCredentials is returned by Run when no session could be
// established at startup.
var ErrStartupCredentials = errors.New("could not establish a session at startup")

type Prober interface {
	Probe(ctx context.Context, handle string) (domain.ProbeOutcome, error)
}

type Classifier interface {
	Classify(o domain.ProbeOutcome) domain.Result
}

// Session re-establishes whatever cookies or tokens the prober relies on.
type Session interface {
	Refresh(ctx context.Context) error
}

// Recorder keeps an audit trail of checks and notifications. It is never
// read back by the monitor.
type Recorder interface {
	AppendCheck(ctx context.Context, r *domain.CheckRecord) error
	AppendNotification(ctx context.Context, r *domain.NotificationRecord) error
}

type Options struct {
	Target            string
	ProfileURL        string
	Interval          time.Duration
	Jitter            time.Duration
	Quiet             QuietHours
	Backoff           BackoffPolicy
	RetryDelay        time.Duration
	StartupRetryDelay time.Duration
	SettleMin         time.Duration
	SettleMax         time.Duration
	RefreshEvery      int
	NotifyOnStart     bool
}

// Monitor runs the polling loop for one handle. A Monitor is not safe for
// concurrent use; Run must be called once.
type Monitor struct {
	Logger     *zap.Logger
	Prober     Prober
	Classifier Classifier
	Session    Session
	Notifier   notify.Notifier // nil disables delivery
	Recorder   Recorder        // optional
	Board      *Board          // optional
	Clock      Clock
	Rand       Random

	opts    Options
	backoff *Backoff
	state   State
	flag    DeferredFlag
	last    *domain.Result
}

func NewMonitor(
	logger *zap.Logger,
	prober Prober,
	classifier Classifier,
	session Session,
	notifier notify.Notifier,
	opts Options,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Backoff == (BackoffPolicy{}) {
		opts.Backoff = DefaultBackoffPolicy()
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Minute
	}
	if opts.StartupRetryDelay <= 0 {
		opts.StartupRetryDelay = time.Minute
	}
	return &Monitor{
		Logger:     logger.With(zap.String("target", opts.Target)),
		Prober:     prober,
		Classifier: classifier,
		Session:    session,
		Notifier:   notifier,
		Clock:      SystemClock{},
		Rand:       globalRand{},
		opts:       opts,
		backoff:    NewBackoff(opts.Backoff, nil),
	}
}

// Run blocks until ctx is cancelled (returning nil) or the startup session
// cannot be established (returning ErrStartupCredentials).
func (m *Monitor) Run(ctx context.Context) error {
	m.backoff = NewBackoff(m.opts.Backoff, m.Rand)

	m.Logger.Info("monitor_starting",
		zap.Duration("interval", m.opts.Interval),
		zap.Duration("jitter", m.opts.Jitter),
		zap.String("quiet_hours", m.opts.Quiet.String()),
	)

	if err := m.startup(ctx); err != nil {
		if ctx.Err() != nil {
			m.Logger.Info("monitor_stopped", zap.String("during", "startup"))
			return nil
		}
		return err
	}

	m.state.WasQuiet = m.opts.Quiet.IsQuiet(m.Clock.Now())

	for {
		if ctx.Err() != nil {
			m.Logger.Info("monitor_stopped", zap.Int64("checks", m.state.CheckCount))
			return nil
		}

		s, err := m.cycle(ctx)
		if ctx.Err() != nil {
			continue
		}
		if err != nil {
			m.Logger.Error("cycle_failed",
				zap.Int64("check", m.state.CheckCount),
				zap.Duration("retry_in", m.opts.RetryDelay),
				zap.Error(err),
			)
			s = Suspension{Point: SuspendCycleRetry, Duration: m.opts.RetryDelay}
		}

		if err := m.suspend(ctx, s.Point, s.Duration); err != nil {
			continue
		}
		if s.RefreshAfter {
			m.refresh(ctx, string(s.Point))
		}
	}
}

func (m *Monitor) startup(ctx context.Context) error {
	err := m.Session.Refresh(ctx)
	if err != nil {
		m.Logger.Warn("session_startup_failed",
			zap.Duration("retry_in", m.opts.StartupRetryDelay),
			zap.Error(err),
		)
		if serr := m.suspend(ctx, SuspendStartupRetry, m.opts.StartupRetryDelay); serr != nil {
			return serr
		}
		if err = m.Session.Refresh(ctx); err != nil {
			m.Logger.Error("session_startup_gave_up", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrStartupCredentials, err)
		}
	}
	m.Logger.Info("session_ready")

	if err := m.settle(ctx); err != nil {
		return err
	}

	if m.opts.NotifyOnStart && !m.opts.Quiet.IsQuiet(m.Clock.Now()) {
		msg := notify.Started(m.opts.Target, m.opts.Interval, m.quietWindow())
		m.dispatch(ctx, domain.NotifyStarted, msg)
	}
	return nil
}

// cycle runs one probe and decides how the loop waits afterwards. Panics are
// turned into errors so one bad cycle cannot end the process.
func (m *Monitor) cycle(ctx context.Context) (s Suspension, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	now := m.Clock.Now()
	m.state.CheckCount++
	check := m.state.CheckCount
	nowQuiet := m.opts.Quiet.IsQuiet(now)

	if detectedAt, ok := m.flag.Release(m.state.WasQuiet, nowQuiet); ok {
		m.Logger.Warn("deferred_alert_released",
			zap.Int64("check", check),
			zap.Time("detected_at", detectedAt),
		)
		msg := notify.DeferredAvailable(m.opts.Target, m.opts.ProfileURL, detectedAt, now)
		m.dispatch(ctx, domain.NotifyDeferredAvailable, msg)
	}
	m.state.WasQuiet = nowQuiet

	if nowQuiet {
		m.Logger.Info("quiet_hours_check",
			zap.Int64("check", check),
			zap.String("window", m.opts.Quiet.String()),
		)
	}

	if m.opts.RefreshEvery > 0 && check > 1 && check%int64(m.opts.RefreshEvery) == 0 {
		m.refresh(ctx, "periodic")
	}

	outcome, err := m.Prober.Probe(ctx, m.opts.Target)
	if err != nil {
		return Suspension{}, fmt.Errorf("probe: %w", err)
	}
	res := m.Classifier.Classify(outcome)
	res.CheckedAt = m.Clock.Now()
	m.last = &res

	m.Logger.Info("cycle_checked",
		zap.Int64("check", check),
		zap.String("status", res.Status.String()),
		zap.Int("http_status", res.HTTPStatus),
		zap.String("detail", res.Detail),
	)
	m.recordCheck(ctx, res, nowQuiet)

	switch d := m.backoff.Assess(&m.state, res.Status); d.Kind {
	case BackoffRateLimit:
		m.Logger.Warn("rate_limited",
			zap.Int64("check", check),
			zap.Duration("pause", d.Pause),
		)
		return Suspension{Point: SuspendRateLimit, Duration: d.Pause, RefreshAfter: true}, nil

	case BackoffErrorStreak:
		m.Logger.Warn("error_streak_cooldown",
			zap.Int64("check", check),
			zap.Int("streak", d.Streak),
			zap.Duration("pause", d.Pause),
			zap.Bool("notify", !nowQuiet),
		)
		if !nowQuiet {
			msg := notify.RepeatedFailures(m.opts.Target, d.Streak, d.Pause, now)
			m.dispatch(ctx, domain.NotifyRepeatedFailures, msg)
		}
		m.state.ConsecutiveErrors = 0
		return Suspension{Point: SuspendErrorCooldown, Duration: d.Pause, RefreshAfter: true}, nil
	}

	prev := m.state.LastStatus
	if ShouldConsiderNotifying(prev, res.Status) {
		switch {
		case !nowQuiet:
			m.Logger.Warn("status_changed",
				zap.String("from", prev.String()),
				zap.String("to", res.Status.String()),
			)
			msg := notify.StatusChange(m.opts.Target, m.opts.ProfileURL, res, now)
			m.dispatch(ctx, domain.NotifyStatusChange, msg)
		case res.Status == domain.StatusAvailable:
			if m.flag.Arm(now, nowQuiet) {
				m.Logger.Warn("deferred_alert_armed", zap.Time("detected_at", now))
			} else {
				m.Logger.Info("deferred_alert_already_armed", zap.Time("detected_at", m.flag.DetectedAt()))
			}
		default:
			m.Logger.Info("status_changed_quiet",
				zap.String("from", prev.String()),
				zap.String("to", res.Status.String()),
			)
		}
	}
	m.state.LastStatus = res.Status

	wait := m.opts.Interval + uniform(m.Rand, 0, m.opts.Jitter)
	return Suspension{Point: SuspendInterval, Duration: wait}, nil
}

// refresh renews the session and settles; a failure keeps the old session.
func (m *Monitor) refresh(ctx context.Context, reason string) bool {
	m.Logger.Info("session_refresh", zap.String("reason", reason))
	if err := m.Session.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			m.Logger.Warn("session_refresh_failed", zap.String("reason", reason), zap.Error(err))
		}
		return false
	}
	return m.settle(ctx) == nil
}

func (m *Monitor) settle(ctx context.Context) error {
	return m.suspend(ctx, SuspendSettle, uniform(m.Rand, m.opts.SettleMin, m.opts.SettleMax))
}

func (m *Monitor) suspend(ctx context.Context, point SuspendPoint, d time.Duration) error {
	next := m.Clock.Now().Add(d)
	m.publish(point, &next)
	if point != SuspendSettle {
		m.Logger.Info("suspend",
			zap.String("point", string(point)),
			zap.Duration("for", d),
			zap.Time("until", next),
		)
	}
	return m.Clock.Sleep(ctx, d)
}

// dispatch is best effort: failures are logged and recorded, never retried.
func (m *Monitor) dispatch(ctx context.Context, kind domain.NotificationKind, msg notify.Message) bool {
	if ctx.Err() != nil {
		return false
	}
	rec := &domain.NotificationRecord{
		ID:      uuid.NewString(),
		Target:  m.opts.Target,
		Kind:    kind,
		Subject: msg.Subject,
		SentAt:  m.Clock.Now().UTC(),
	}
	if m.Notifier == nil {
		rec.Error = "no notification channel configured"
		m.Logger.Warn("notify_skipped", zap.String("kind", string(kind)), zap.String("subject", msg.Subject))
	} else if err := m.Notifier.Send(ctx, msg.Subject, msg.Body); err != nil {
		rec.Error = err.Error()
		m.Logger.Error("notify_failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		rec.Sent = true
		m.Logger.Info("notify_sent", zap.String("kind", string(kind)), zap.String("subject", msg.Subject))
	}
	if m.Recorder != nil {
		if err := m.Recorder.AppendNotification(ctx, rec); err != nil {
			m.Logger.Warn("record_notification_failed", zap.Error(err))
		}
	}
	return rec.Sent
}

func (m *Monitor) recordCheck(ctx context.Context, res domain.Result, quiet bool) {
	if m.Recorder == nil {
		return
	}
	rec := &domain.CheckRecord{
		ID:         uuid.NewString(),
		Target:     m.opts.Target,
		Seq:        m.state.CheckCount,
		Status:     res.Status,
		HTTPStatus: res.HTTPStatus,
		Detail:     res.Detail,
		Quiet:      quiet,
		CheckedAt:  res.CheckedAt.UTC(),
	}
	if err := m.Recorder.AppendCheck(ctx, rec); err != nil {
		m.Logger.Warn("record_check_failed", zap.Error(err))
	}
}

func (m *Monitor) publish(phase SuspendPoint, next *time.Time) {
	if m.Board == nil {
		return
	}
	now := m.Clock.Now()
	s := Snapshot{
		Target:            m.opts.Target,
		LastStatus:        m.state.LastStatus,
		CheckCount:        m.state.CheckCount,
		ConsecutiveErrors: m.state.ConsecutiveErrors,
		Quiet:             m.opts.Quiet.IsQuiet(now),
		QuietWindow:       m.opts.Quiet.String(),
		DeferredPending:   m.flag.Pending(),
		Phase:             phase,
		NextCheckAt:       next,
		UpdatedAt:         now,
	}
	if m.last != nil {
		r := *m.last
		s.LastResult = &r
	}
	if m.flag.Pending() {
		at := m.flag.DetectedAt()
		s.DeferredSince = &at
	}
	m.Board.Publish(s)
}

func (m *Monitor) quietWindow() string {
	if m.opts.Quiet.Start == m.opts.Quiet.End {
		return ""
	}
	return m.opts.Quiet.String()
}

// State returns a copy of the loop state. Only meaningful once Run returned.
func (m *Monitor) State() State { return m.state }
