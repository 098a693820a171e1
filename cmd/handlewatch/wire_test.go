package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/config"
	"github.com/hamed0406/handlewatch/internal/repo/memory"
	"github.com/hamed0406/handlewatch/internal/repo/sqlite"
)

func TestOpenStore_ByDriver(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()

	s, err := openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "h.db")
	s, err = openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.Close())

	cfg.DatabaseDriver = "mongo"
	_, err = openStore(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildNotifier_NilWithoutChannels(t *testing.T) {
	assert.Nil(t, buildNotifier(config.Defaults()))

	cfg := config.Defaults()
	cfg.SlackWebhook = "https://hooks.slack.example/x"
	assert.NotNil(t, buildNotifier(cfg))
}

func TestMonitorOptions_MapsConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Target = "jane"
	cfg.QuietTZ = "UTC"
	cfg.QuietStart, cfg.QuietEnd = 22, 6

	opts, err := monitorOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "jane", opts.Target)
	assert.Equal(t, "https://www.instagram.com/jane/", opts.ProfileURL)
	assert.Equal(t, 30*time.Minute, opts.Interval)
	assert.Equal(t, 22, opts.Quiet.Start)
	assert.Equal(t, time.UTC, opts.Quiet.Location)
	assert.Equal(t, 5, opts.Backoff.ErrorThreshold)
	assert.Equal(t, 90*time.Minute, opts.Backoff.RateLimitPauseMax)
	assert.Equal(t, 8, opts.RefreshEvery)
	assert.True(t, opts.NotifyOnStart)

	cfg.QuietTZ = "Nowhere/Special"
	_, err = monitorOptions(cfg)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "handlewatch dev")
}
