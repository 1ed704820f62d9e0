// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the full configuration surface of the scraper. Field
// defaults keep a bare environment runnable except for the portal URL,
// which the session validates.
type Settings struct {
	SEIURL   string
	Username string
	Password string

	Headless       bool
	TimeoutSeconds int

	ManualLogin            bool
	ManualLoginWaitSeconds int

	// SearchTargets comes in pipe-delimited (TARGET A|TARGET B); order is
	// priority order.
	SearchTargets []string
	MatchMode     string

	MaxPages     int
	MaxProcesses int
	MaxCycles    int

	SelectorsPath string

	OutputDir  string
	ReportName string

	LogLevel string
	LogFile  string
	Debug    bool
}

// Load reads the .env file when present and resolves every setting. Each
// value accepts the historical environment key variants, first hit wins.
func Load() *Settings {
	_ = godotenv.Load()

	return &Settings{
		SEIURL:   envFirst("url_sei", "URL", "SEI_URL", "URL_SEI"),
		Username: envFirst("username", "USERNAME", "USER"),
		Password: envFirst("password", "PASSWORD", "PASS"),

		Headless:       envBool(false, "HEADLESS", "headless"),
		TimeoutSeconds: envInt(20, "TIMEOUT_SECONDS", "timeout_seconds"),

		ManualLogin:            envBool(true, "MANUAL_LOGIN", "manual_login"),
		ManualLoginWaitSeconds: envInt(300, "MANUAL_LOGIN_WAIT_SECONDS", "manual_login_wait_seconds"),

		SearchTargets: SplitTargets(envFirst("SEARCH_TARGETS", "search_targets")),
		MatchMode:     envDefault("contains", "MATCH_MODE", "match_mode"),

		MaxPages:     envInt(20, "MAX_PAGES"),
		MaxProcesses: envInt(5, "MAX_PROCESSES"),
		MaxCycles:    envInt(10, "MAX_CYCLES"),

		SelectorsPath: envDefault("xpath_selector.json", "SELECTORS_FILE", "selectors_file"),

		OutputDir:  envDefault("output", "OUTPUT_DIR", "output_dir"),
		ReportName: envDefault("report.json", "REPORT_NAME", "report_name"),

		LogLevel: envDefault("INFO", "LOG_LEVEL", "log_level"),
		LogFile:  envFirst("LOG_FILE", "log_file"),
		Debug:    envBool(false, "DEBUG", "debug"),
	}
}

// Timeout is the per-operation locate budget.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ManualLoginWait bounds the post-login confirmation loop.
func (s *Settings) ManualLoginWait() time.Duration {
	return time.Duration(s.ManualLoginWaitSeconds) * time.Second
}

// SplitTargets parses the pipe-delimited search-target list, dropping
// empty entries and preserving order.
func SplitTargets(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			return v
		}
	}
	return ""
}

func envDefault(fallback string, keys ...string) string {
	if v := envFirst(keys...); v != "" {
		return v
	}
	return fallback
}

func envBool(fallback bool, keys ...string) bool {
	v := envFirst(keys...)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(fallback int, keys ...string) int {
	v := envFirst(keys...)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
