package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/handlewatch/internal/domain"
	"github.com/hamed0406/handlewatch/internal/probe"
)

var checkCmd = &cobra.Command{
	Use:   "check [handle]",
	Short: "Probe the handle once and print the classified result",
	Long: `Establish a session, probe the handle once and print the result.

Nothing is sent and nothing is recorded. The handle argument overrides
TARGET_HANDLE.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	handle := cfg.Target
	if len(args) == 1 {
		handle = strings.TrimPrefix(args[0], "@")
	}
	if handle == "" {
		return fmt.Errorf("no handle given: pass one or set TARGET_HANDLE")
	}

	sess, prober, err := buildProber(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sess.Refresh(ctx); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	out, err := prober.Probe(ctx, handle)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	printResult(cmd, handle, probe.Classify(out))
	return nil
}

func printResult(cmd *cobra.Command, handle string, res domain.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "@%s: %s\n", handle, res.Status)
	if res.HTTPStatus != 0 {
		fmt.Fprintf(w, "  http:    %d\n", res.HTTPStatus)
	}
	fmt.Fprintf(w, "  detail:  %s\n", res.Detail)
	if res.Profile != nil {
		fmt.Fprintf(w, "  profile: %s\n", res.Profile.Summary())
	}
}
