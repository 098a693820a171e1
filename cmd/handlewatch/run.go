package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/handlewatch/internal/httpapi"
	apimw "github.com/hamed0406/handlewatch/internal/httpapi/middleware"
	"github.com/hamed0406/handlewatch/internal/logging"
	"github.com/hamed0406/handlewatch/internal/probe"
	"github.com/hamed0406/handlewatch/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the handle until interrupted",
	Long: `Start the monitor loop and, when api_addr is set, the status API.

The process runs until it receives SIGINT or SIGTERM. It exits with status 1
when no session can be established at startup.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogConsole)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}
	defer store.Close()

	sess, prober, err := buildProber(cfg)
	if err != nil {
		return err
	}
	opts, err := monitorOptions(cfg)
	if err != nil {
		return err
	}
	notifier := buildNotifier(cfg)
	if notifier == nil {
		logger.Warn("no_notification_channel", zap.String("hint", "set SMTP_HOST or SLACK_WEBHOOK"))
	}

	board := scheduler.NewBoard()
	m := scheduler.NewMonitor(logger, prober, probe.NewClassifier(), sess, notifier, opts)
	m.Recorder = store
	m.Board = board

	var srv *http.Server
	if cfg.Addr != "" {
		api := httpapi.NewServer(logger, cfg.Target, board, store, notifier)
		api.MaxLimit = cfg.HistoryLimit
		keys := apimw.Keys{Public: cfg.APIKeys, Admin: cfg.AdminKeys}
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.RatePerMin, cfg.RateBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_listen_failed", zap.Error(err))
			}
		}()
	}

	runErr := m.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("monitor_failed", zap.Error(runErr))
		return runErr
	}
	logger.Info("shutdown_complete")
	return nil
}
