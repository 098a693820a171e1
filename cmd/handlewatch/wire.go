package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/config"
	"github.com/hamed0406/handlewatch/internal/notify"
	"github.com/hamed0406/handlewatch/internal/probe"
	"github.com/hamed0406/handlewatch/internal/repo"
	"github.com/hamed0406/handlewatch/internal/repo/memory"
	"github.com/hamed0406/handlewatch/internal/repo/postgres"
	"github.com/hamed0406/handlewatch/internal/repo/sqlite"
	"github.com/hamed0406/handlewatch/internal/scheduler"
)

// buildNotifier returns nil when no channel is configured.
func buildNotifier(cfg config.Config) notify.Notifier {
	email := notify.NewEmail(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.SMTPTo,
		TLS:      cfg.SMTPTLS,
	})
	return notify.Build(email, notify.NewSlack(cfg.SlackWebhook))
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.Store, error) {
	switch cfg.DatabaseDriver {
	case "", "memory":
		return memory.New(cfg.HistoryLimit), nil
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.DatabaseURL, cfg.HistoryLimit, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL, cfg.HistoryLimit, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// buildProber returns the session (for refreshes) and the retrying prober
// that shares it.
func buildProber(cfg config.Config) (*probe.Session, probe.Prober, error) {
	sess, err := probe.NewSession(cfg.BaseURL, cfg.ProbeTimeout.Duration())
	if err != nil {
		return nil, nil, err
	}
	p := &probe.RetryProber{
		Inner:    probe.NewHTTPProber(sess, cfg.ProbeTimeout.Duration()),
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff.Duration(),
		Sleep:    scheduler.SystemClock{}.Sleep,
	}
	return sess, p, nil
}

func monitorOptions(cfg config.Config) (scheduler.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return scheduler.Options{}, fmt.Errorf("quiet_tz: %w", err)
	}
	return scheduler.Options{
		Target:     cfg.Target,
		ProfileURL: cfg.ProfileURL(),
		Interval:   cfg.Interval.Duration(),
		Jitter:     cfg.Jitter.Duration(),
		Quiet:      scheduler.QuietHours{Start: cfg.QuietStart, End: cfg.QuietEnd, Location: loc},
		Backoff: scheduler.BackoffPolicy{
			RateLimitPauseMin: cfg.RateLimitPauseMin.Duration(),
			RateLimitPauseMax: cfg.RateLimitPauseMax.Duration(),
			ErrorThreshold:    cfg.ErrorThreshold,
			ErrorCooldown:     cfg.ErrorCooldown.Duration(),
		},
		RetryDelay:        cfg.RetryDelay.Duration(),
		StartupRetryDelay: cfg.StartupRetryDelay.Duration(),
		SettleMin:         cfg.SettleMin.Duration(),
		SettleMax:         cfg.SettleMax.Duration(),
		RefreshEvery:      cfg.RefreshEvery,
		NotifyOnStart:     cfg.NotifyOnStart,
	}, nil
}
