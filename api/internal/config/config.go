package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"claim-verifier/api/internal/logger"
	"claim-verifier/api/internal/verify"
)

type Config struct {
	Port string

	Verify verify.Config

	DatabaseURL string
	CacheTTL    time.Duration

	TelegramBotToken string

	LogLevel logger.LogLevel
	LogJSON  bool
}

// LoadDotEnv reads .env files into the environment without overriding set variables.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads the environment. Every malformed variable is reported, not just the first.
func Load() (*Config, error) {
	var errs []error
	p := parser{errs: &errs}

	key, err := mustEnv("GEMINI_API_KEY")
	if err != nil {
		errs = append(errs, err)
	}

	vc := verify.DefaultConfig()
	vc.APIKey = key
	vc.ModelName = getEnv("GEMINI_MODEL", vc.ModelName)
	vc.Temperature = p.floatVar("GEMINI_TEMPERATURE", vc.Temperature)
	vc.Timeout = p.durationVar("VERIFY_TIMEOUT", vc.Timeout)
	vc.RetryAttempts = p.intVar("VERIFY_RETRY_ATTEMPTS", vc.RetryAttempts)
	vc.BatchConcurrency = p.intVar("VERIFY_BATCH_CONCURRENCY", vc.BatchConcurrency)

	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		Verify:           vc,
		DatabaseURL:      resolveDSN(),
		CacheTTL:         p.durationVar("CACHE_TTL", 24*time.Hour),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		LogLevel:         logger.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogJSON:          p.boolVar("LOG_JSON", false),
	}
	if key != "" {
		if err := vc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// resolveDSN prefers DATABASE_URL and otherwise builds a DSN from PGHOST and the
// POSTGRES_* variables. Without either the cache stays disabled.
func resolveDSN() string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}
	host := getEnv("PGHOST", "")
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "verifier"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "verifier"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// parser collects conversion errors so Load can report them together.
type parser struct {
	errs *[]error
}

func (p parser) fail(k, v string, err error) {
	*p.errs = append(*p.errs, fmt.Errorf("env %s=%q: %w", k, v, err))
}

func (p parser) intVar(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return n
}

func (p parser) floatVar(k string, def float32) float32 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return float32(f)
}

// durationVar accepts Go durations ("90s") or a bare number of seconds.
func (p parser) durationVar(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return d
}

func (p parser) boolVar(k string, def bool) bool {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return b
}
