// Package main is the entry point for the handlewatch CLI.
//
// Usage:
//
//	handlewatch run -c handlewatch.yaml   # watch the handle until interrupted
//	handlewatch check                     # one probe, print the result
//	handlewatch preflight                 # validate configuration and reachability
//	handlewatch version                   # show version info
//
// Every setting can also come from the environment (TARGET_HANDLE, SMTP_HOST,
// ...); environment values win over the file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hamed0406/handlewatch/internal/config"
)

// Set at build time: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "handlewatch",
	Short: "Watch a profile handle and mail you when it frees up",
	Long: `handlewatch polls the availability of one profile handle, tells you when
its status changes, stays silent during quiet hours, and sends a single
held-back alert when quiet hours end if the handle looked free meanwhile.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "handlewatch %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file (optional)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config (if given) and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
