package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hamed0406/handlewatch/internal/config"
	"github.com/hamed0406/handlewatch/internal/probe"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Validate configuration and name resolution before running",
	RunE:  runPreflight,
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

type level int

const (
	levelOK level = iota
	levelWarn
	levelFail
)

func (l level) mark() string {
	switch l {
	case levelWarn:
		return "⚠"
	case levelFail:
		return "✖"
	default:
		return "✔"
	}
}

type finding struct {
	level level
	msg   string
}

type dnsFunc func(ctx context.Context, host string) probe.DNSStatus

func runPreflight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	findings := preflight(ctx, cfg, probe.CheckDNS)
	if failed := report(cmd.OutOrStdout(), cmd.ErrOrStderr(), findings); failed > 0 {
		return fmt.Errorf("preflight failed with %d problem(s)", failed)
	}
	return nil
}

func preflight(ctx context.Context, cfg config.Config, resolve dnsFunc) []finding {
	var out []finding
	ok := func(format string, a ...any) { out = append(out, finding{levelOK, fmt.Sprintf(format, a...)}) }
	warn := func(format string, a ...any) { out = append(out, finding{levelWarn, fmt.Sprintf(format, a...)}) }
	fail := func(format string, a ...any) { out = append(out, finding{levelFail, fmt.Sprintf(format, a...)}) }

	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fail("%v", e)
		}
	} else {
		ok("configuration valid, watching @%s every %s", cfg.Target, cfg.Interval.Duration())
	}

	if w := cfg.QuietWindow(); w == "" {
		warn("quiet hours disabled; alerts go out at any hour")
	} else {
		ok("quiet hours %s (%s)", w, tzName(cfg.QuietTZ))
	}

	if cfg.SMTPHost == "" && cfg.SlackWebhook == "" {
		warn("no SMTP_HOST or SLACK_WEBHOOK; alerts only reach the log")
	}
	if cfg.SMTPHost != "" {
		ok("mail via %s:%d to %s", cfg.SMTPHost, cfg.SMTPPort, strings.Join(cfg.SMTPTo, ","))
	}
	if cfg.SlackWebhook != "" {
		ok("slack webhook configured")
	}

	if cfg.Addr == "" {
		ok("status API disabled")
	} else {
		ok("API_ADDR=%s", cfg.Addr)
		if len(cfg.APIKeys) == 0 && len(cfg.AdminKeys) == 0 {
			warn("API_KEYS and ADMIN_KEYS empty; status API is open to anyone who can reach it")
		} else if len(cfg.AdminKeys) == 0 {
			warn("ADMIN_KEYS empty; the test-notification route will refuse every key")
		}
		for name, keys := range map[string][]string{"API_KEYS": cfg.APIKeys, "ADMIN_KEYS": cfg.AdminKeys} {
			for _, k := range keys {
				if strings.Contains(k, " ") {
					warn("%s contains spaces; use comma-separated with no spaces, e.g. key1,key2", name)
					break
				}
			}
		}
		if len(cfg.AllowedOrigins) == 0 {
			warn("ALLOWED_ORIGINS empty; any origin may call the status API from a browser")
		}
	}

	switch cfg.DatabaseDriver {
	case "", "memory":
		warn("history kept in memory only; it is lost on restart")
	default:
		ok("history stored with %s", cfg.DatabaseDriver)
	}

	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Hostname() != "" {
		st := resolve(ctx, u.Hostname())
		if st.Class == probe.DNSResolves {
			ok("%s resolves (%d address(es))", st.Host, len(st.IPs))
		} else {
			fail("%s does not resolve: %s %s", st.Host, st.Class, st.ResolverError)
		}
	}
	if cfg.SMTPHost != "" {
		st := resolve(ctx, cfg.SMTPHost)
		if st.Class == probe.DNSResolves {
			ok("%s resolves", st.Host)
		} else {
			warn("%s does not resolve: %s %s", st.Host, st.Class, st.ResolverError)
		}
	}
	return out
}

// report prints findings the way operators scan them: good news on stdout,
// warnings and failures on stderr. It returns the number of failures.
func report(stdout, stderr io.Writer, findings []finding) int {
	failed := 0
	for _, f := range findings {
		w := stdout
		if f.level != levelOK {
			w = stderr
		}
		fmt.Fprintln(w, f.level.mark(), strings.TrimSpace(f.msg))
		if f.level == levelFail {
			failed++
		}
	}
	if failed == 0 {
		fmt.Fprintln(stdout, levelOK.mark(), "preflight passed")
	}
	return failed
}

func tzName(tz string) string {
	if tz == "" {
		return "Local"
	}
	return tz
}
