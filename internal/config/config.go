// Package config loads ledgerd settings from the environment, optionally
// seeded by a .env file. Real environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds every ledgerd setting.
type Config struct {
	DBDriver string
	// DBDSN is the MySQL data source name. Unused for SQLite.
	DBDSN  string
	DBPath string

	// MetricsAddr is where /metrics and /healthz are served. Empty disables
	// the ops server.
	MetricsAddr string

	SweepCron       string
	ReminderOffsets []int
	// TZOffsetHours is the fixed UTC offset in which due dates are compared.
	TZOffsetHours    int
	SweepConcurrency int

	MaxDeviceTokens int
	PushTimeout     time.Duration
	CurrencySymbol  string

	FCM FCM
}

// FCM holds the push provider settings.
type FCM struct {
	ProjectID    string
	SendURL      string
	Scope        string
	ClientEmail  string
	PrivateKey   string
	TokenURL     string
	ExpoUsername string
	ExpoSlug     string
}

// Enabled reports whether service-account credentials were supplied.
func (f FCM) Enabled() bool {
	return f.ClientEmail != "" && f.PrivateKey != ""
}

// Location returns the fixed zone described by TZOffsetHours.
func (c *Config) Location() *time.Location {
	name := fmt.Sprintf("UTC%+d", c.TZOffsetHours)
	return time.FixedZone(name, c.TZOffsetHours*3600)
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileValues := make(map[string]string)
	for _, f := range files {
		values, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range values {
			fileValues[k] = v
		}
	}

	return Parse(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileValues[key]
	})
}

// Parse builds a Config from getenv, applying defaults for empty values.
func Parse(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		DBDriver:       strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		DBDSN:          get("DB_DSN", ""),
		DBPath:         get("DB_PATH", "./data/ledger.db"),
		MetricsAddr:    get("METRICS_ADDR", ":9090"),
		SweepCron:      get("SWEEP_CRON", "0 6-12 * * *"),
		CurrencySymbol: get("CURRENCY_SYMBOL", "R$"),
		FCM: FCM{
			ProjectID:    get("FCM_PROJECT_ID", ""),
			SendURL:      get("FCM_SEND_URL", ""),
			Scope:        get("FCM_GOOGLE_SCOPE", ""),
			ClientEmail:  get("GOOGLE_CLIENT_EMAIL", ""),
			PrivateKey:   get("GOOGLE_PRIVATE_KEY", ""),
			TokenURL:     get("GOOGLE_TOKEN_URL", ""),
			ExpoUsername: get("EXPO_USERNAME", ""),
			ExpoSlug:     get("EXPO_SLUG", ""),
		},
	}

	var err error
	if cfg.ReminderOffsets, err = parseInts(get("REMINDER_OFFSETS", "5,1,0,-1,-5")); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_OFFSETS: %w", err)
	}
	if cfg.TZOffsetHours, err = strconv.Atoi(get("TZ_OFFSET_HOURS", "-3")); err != nil {
		return nil, fmt.Errorf("invalid TZ_OFFSET_HOURS: %w", err)
	}
	if cfg.TZOffsetHours < -12 || cfg.TZOffsetHours > 14 {
		return nil, fmt.Errorf("invalid TZ_OFFSET_HOURS: %d is out of range", cfg.TZOffsetHours)
	}
	if cfg.MaxDeviceTokens, err = positiveInt(get("MAX_DEVICE_TOKENS", "5")); err != nil {
		return nil, fmt.Errorf("invalid MAX_DEVICE_TOKENS: %w", err)
	}
	if cfg.SweepConcurrency, err = positiveInt(get("SWEEP_CONCURRENCY", "4")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_CONCURRENCY: %w", err)
	}
	if cfg.PushTimeout, err = time.ParseDuration(get("PUSH_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid PUSH_TIMEOUT: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverMySQL:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for the mysql driver")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func parseInts(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", raw)
	}
	return out, nil
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}
