package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	Target  string `yaml:"target"`   // handle to watch, without the leading @
	BaseURL string `yaml:"base_url"` // site root; the profile endpoint hangs off it

	Interval Duration `yaml:"interval"` // base polling interval
	Jitter   Duration `yaml:"jitter"`   // upper bound of the random addition

	QuietStart int    `yaml:"quiet_start"` // hour, inclusive
	QuietEnd   int    `yaml:"quiet_end"`   // hour, exclusive
	QuietTZ    string `yaml:"quiet_tz"`    // IANA name or "Local"

	ErrorThreshold    int      `yaml:"error_threshold"`
	ErrorCooldown     Duration `yaml:"error_cooldown"`
	RateLimitPauseMin Duration `yaml:"rate_limit_pause_min"`
	RateLimitPauseMax Duration `yaml:"rate_limit_pause_max"`
	RetryDelay        Duration `yaml:"retry_delay"`         // after an unexpected cycle failure
	StartupRetryDelay Duration `yaml:"startup_retry_delay"` // between the two startup session attempts
	SettleMin         Duration `yaml:"settle_min"`          // pause after a session refresh
	SettleMax         Duration `yaml:"settle_max"`
	RefreshEvery      int      `yaml:"refresh_every"` // proactive session refresh cadence, in cycles

	ProbeTimeout  Duration `yaml:"probe_timeout"`
	RetryAttempts int      `yaml:"retry_attempts"` // transport-level retries inside one probe
	RetryBackoff  Duration `yaml:"retry_backoff"`

	NotifyOnStart bool     `yaml:"notify_on_start"`
	SMTPHost      string   `yaml:"smtp_host"`
	SMTPPort      int      `yaml:"smtp_port"`
	SMTPUser      string   `yaml:"smtp_user"`
	SMTPPassword  string   `yaml:"smtp_password"`
	SMTPFrom      string   `yaml:"smtp_from"`
	SMTPTo        []string `yaml:"smtp_to"`
	SMTPTLS       bool     `yaml:"smtp_tls"`
	SlackWebhook  string   `yaml:"slack_webhook"`

	Addr           string   `yaml:"api_addr"` // status API bind address; empty disables it
	APIKeys        []string `yaml:"api_keys"`
	AdminKeys      []string `yaml:"admin_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RatePerMin     int      `yaml:"rate_per_min"`
	RateBurst      int      `yaml:"rate_burst"`

	DatabaseDriver string `yaml:"database_driver"` // memory | sqlite | postgres
	DatabaseURL    string `yaml:"database_url"`
	HistoryLimit   int    `yaml:"history_limit"`

	LogDir     string `yaml:"log_dir"`
	LogConsole bool   `yaml:"log_console"`
}

func Defaults() Config {
	return Config{
		BaseURL:           "https://www.instagram.com",
		Interval:          Duration(30 * time.Minute),
		Jitter:            Duration(5 * time.Minute),
		QuietStart:        0,
		QuietEnd:          9,
		QuietTZ:           "Local",
		ErrorThreshold:    5,
		ErrorCooldown:     Duration(30 * time.Minute),
		RateLimitPauseMin: Duration(60 * time.Minute),
		RateLimitPauseMax: Duration(90 * time.Minute),
		RetryDelay:        Duration(60 * time.Second),
		StartupRetryDelay: Duration(60 * time.Second),
		SettleMin:         Duration(4 * time.Second),
		SettleMax:         Duration(7 * time.Second),
		RefreshEvery:      8,
		ProbeTimeout:      Duration(30 * time.Second),
		RetryAttempts:     2,
		RetryBackoff:      Duration(300 * time.Millisecond),
		NotifyOnStart:     true,
		SMTPPort:          587,
		RatePerMin:        120,
		RateBurst:         60,
		DatabaseDriver:    "memory",
		HistoryLimit:      500,
		LogDir:            "logs",
		LogConsole:        true,
	}
}

// FromEnv returns the defaults overridden by environment variables.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	cfg.normalize()
	return cfg
}

// Load reads an optional YAML file over the defaults, then applies the
// environment on top so deployments can override single values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

// normalize accepts "@handle" as well as "handle".
func (c *Config) normalize() {
	c.Target = strings.TrimPrefix(strings.TrimSpace(c.Target), "@")
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// LoadFile overlays the keys present in the YAML file onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	envString("TARGET_HANDLE", &c.Target)
	envString("BASE_URL", &c.BaseURL)
	envDuration("CHECK_INTERVAL", &c.Interval)
	envDuration("JITTER", &c.Jitter)
	envInt("QUIET_START", &c.QuietStart)
	envInt("QUIET_END", &c.QuietEnd)
	envString("QUIET_TZ", &c.QuietTZ)
	envInt("ERROR_THRESHOLD", &c.ErrorThreshold)
	envDuration("ERROR_COOLDOWN", &c.ErrorCooldown)
	envDuration("RATE_LIMIT_PAUSE_MIN", &c.RateLimitPauseMin)
	envDuration("RATE_LIMIT_PAUSE_MAX", &c.RateLimitPauseMax)
	envDuration("RETRY_DELAY", &c.RetryDelay)
	envDuration("STARTUP_RETRY_DELAY", &c.StartupRetryDelay)
	envDuration("SETTLE_MIN", &c.SettleMin)
	envDuration("SETTLE_MAX", &c.SettleMax)
	envInt("REFRESH_EVERY", &c.RefreshEvery)
	envDuration("PROBE_TIMEOUT", &c.ProbeTimeout)

	// Retry tuning
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RetryAttempts = n
		}
	}
	if v := os.Getenv("RETRY_BACKOFF_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.RetryBackoff = Duration(time.Duration(ms) * time.Millisecond)
		}
	}

	envBool("NOTIFY_ON_START", &c.NotifyOnStart)
	envString("SMTP_HOST", &c.SMTPHost)
	envInt("SMTP_PORT", &c.SMTPPort)
	envString("SMTP_USER", &c.SMTPUser)
	envString("SMTP_PASSWORD", &c.SMTPPassword)
	envString("SMTP_FROM", &c.SMTPFrom)
	envList("SMTP_TO", &c.SMTPTo)
	envBool("SMTP_TLS", &c.SMTPTLS)
	envString("SLACK_WEBHOOK", &c.SlackWebhook)

	envString("API_ADDR", &c.Addr)
	envList("API_KEYS", &c.APIKeys)
	envList("ADMIN_KEYS", &c.AdminKeys)
	envList("ALLOWED_ORIGINS", &c.AllowedOrigins)
	envInt("RATE_PER_MIN", &c.RatePerMin)
	envInt("RATE_BURST", &c.RateBurst)

	envString("DATABASE_DRIVER", &c.DatabaseDriver)
	envString("DATABASE_URL", &c.DatabaseURL)
	envInt("HISTORY_LIMIT", &c.HistoryLimit)

	envString("LOG_DIR", &c.LogDir)
	envBool("LOG_CONSOLE", &c.LogConsole)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = Duration(d)
		}
	}
}

// envList parses comma-separated values, dropping blanks.
func envList(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

// Location resolves QuietTZ.
func (c Config) Location() (*time.Location, error) {
	if c.QuietTZ == "" || strings.EqualFold(c.QuietTZ, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.QuietTZ)
}

// QuietWindow renders the quiet hours as "00:00-09:00", or "" when disabled.
func (c Config) QuietWindow() string {
	if c.QuietStart == c.QuietEnd {
		return ""
	}
	return fmt.Sprintf("%02d:00-%02d:00", c.QuietStart, c.QuietEnd)
}

// ProfileURL is the public page of the watched handle.
func (c Config) ProfileURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.Target + "/"
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	bad := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if strings.TrimPrefix(c.Target, "@") == "" {
		bad("target handle is empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		bad("base_url must be http(s), got %q", c.BaseURL)
	}
	if c.Interval.Duration() <= 0 {
		bad("interval must be positive")
	}
	if c.Jitter.Duration() < 0 {
		bad("jitter must not be negative")
	}
	if c.QuietStart < 0 || c.QuietStart > 23 || c.QuietEnd < 0 || c.QuietEnd > 23 {
		bad("quiet hours must be within 0..23, got %d..%d", c.QuietStart, c.QuietEnd)
	}
	if _, lerr := c.Location(); lerr != nil {
		bad("quiet_tz %q: %v", c.QuietTZ, lerr)
	}
	if c.ErrorThreshold < 1 {
		bad("error_threshold must be at least 1")
	}
	if c.RateLimitPauseMin.Duration() < 0 || c.RateLimitPauseMax < c.RateLimitPauseMin {
		bad("rate limit pause range %s..%s is invalid", c.RateLimitPauseMin.Duration(), c.RateLimitPauseMax.Duration())
	}
	if c.SettleMin.Duration() < 0 || c.SettleMax < c.SettleMin {
		bad("settle range %s..%s is invalid", c.SettleMin.Duration(), c.SettleMax.Duration())
	}
	if c.RefreshEvery < 1 {
		bad("refresh_every must be at least 1")
	}
	if c.ProbeTimeout.Duration() <= 0 {
		bad("probe_timeout must be positive")
	}
	if c.SMTPHost != "" && (c.SMTPFrom == "" || len(c.SMTPTo) == 0) {
		bad("smtp_from and smtp_to are required when smtp_host is set")
	}
	switch c.DatabaseDriver {
	case "memory", "":
	case "sqlite", "postgres":
		if c.DatabaseURL == "" {
			bad("database_url is required for driver %q", c.DatabaseDriver)
		}
	default:
		bad("unknown database_driver %q", c.DatabaseDriver)
	}
	return err
}
