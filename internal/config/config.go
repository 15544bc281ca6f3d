// Package config provides application configuration loaded from environment
// variables. Use the package-level Get() function to obtain the singleton
// Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds the operator HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 10s
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// AutoBetConfig holds the orchestrator / executor policy knobs.
type AutoBetConfig struct {
	BankrollYen  int64         // Kelly sizing base for win bets; default 100 000
	TargetUserID string        // account whose credentials drive auto-betting
	FireLead     time.Duration // fire this long before post time; default 5m
	OrchWindow   time.Duration // look-ahead window per tick; default 20m
	TickInterval time.Duration // orchestrator tick; default 15m
}

// OddsConfig holds odds-feed client settings.
type OddsConfig struct {
	APIURL         string        // base URL of the odds feed
	CalendarAPIURL string        // base URL of the race calendar; defaults to APIURL
	FetchTimeout   time.Duration // per-request cap; default 30s
	RetryBackoff   time.Duration // base backoff between retries; default 1s
	RatePerSec     float64       // shared request rate across executors; default 5
}

// GatewayConfig holds pari-mutuel gateway client settings.
type GatewayConfig struct {
	APIURL  string        // base URL of the betting gateway
	Timeout time.Duration // submit/balance cap; default 30s
}

// OpsConfig holds operator-API settings.
type OpsConfig struct {
	JWTSecret string // HMAC secret for the mutating operator routes
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	AutoBet AutoBetConfig
	Odds    OddsConfig
	Gateway GatewayConfig
	Ops     OpsConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and
// valid. Returns every validation error encountered, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.AutoBet.BankrollYen <= 0 {
		errs = append(errs, fmt.Errorf("BANKROLL_YEN must be positive, got %d", c.AutoBet.BankrollYen))
	}
	if c.AutoBet.FireLead <= 0 {
		errs = append(errs, errors.New("FIRE_LEAD_MINUTES must be positive"))
	}
	if c.AutoBet.OrchWindow <= c.AutoBet.FireLead {
		errs = append(errs, fmt.Errorf(
			"ORCH_WINDOW_MINUTES (%s) must exceed FIRE_LEAD_MINUTES (%s)",
			c.AutoBet.OrchWindow, c.AutoBet.FireLead,
		))
	}

	if c.IsProd() {
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
		}
		if c.Odds.APIURL == "" {
			errs = append(errs, errors.New("ODDS_API_URL must be set in production"))
		}
		if c.Gateway.APIURL == "" {
			errs = append(errs, errors.New("GATEWAY_API_URL must be set in production"))
		}
		if c.AutoBet.TargetUserID == "" {
			errs = append(errs, errors.New("TARGET_USER_ID must be set in production"))
		}
		if c.Ops.JWTSecret == "" {
			errs = append(errs, errors.New("OPS_JWT_SECRET must be set in production"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment
// variables. Panics if loading fails — call this early in main() to catch
// misconfigurations at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "keiba_autobet"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Auto-bet policy ───────────────────────────────────────────────────────
	bankroll, err := getInt64("BANKROLL_YEN", 100_000)
	if err != nil {
		return nil, fmt.Errorf("BANKROLL_YEN: %w", err)
	}
	fireLead, err := getInt("FIRE_LEAD_MINUTES", 5)
	if err != nil {
		return nil, fmt.Errorf("FIRE_LEAD_MINUTES: %w", err)
	}
	window, err := getInt("ORCH_WINDOW_MINUTES", 20)
	if err != nil {
		return nil, fmt.Errorf("ORCH_WINDOW_MINUTES: %w", err)
	}

	cfg.AutoBet = AutoBetConfig{
		BankrollYen:  bankroll,
		TargetUserID: getEnv("TARGET_USER_ID", ""),
		FireLead:     time.Duration(fireLead) * time.Minute,
		OrchWindow:   time.Duration(window) * time.Minute,
		TickInterval: getDuration("ORCH_TICK_INTERVAL", 15*time.Minute),
	}

	// ── Odds feed ─────────────────────────────────────────────────────────────
	ratePerSec, err := getFloat("ODDS_RATE_PER_SEC", 5)
	if err != nil {
		return nil, fmt.Errorf("ODDS_RATE_PER_SEC: %w", err)
	}
	cfg.Odds = OddsConfig{
		APIURL:       getEnv("ODDS_API_URL", ""),
		FetchTimeout: getDuration("ODDS_FETCH_TIMEOUT", 30*time.Second),
		RetryBackoff: getDuration("ODDS_RETRY_BACKOFF", time.Second),
		RatePerSec:   ratePerSec,
	}
	// The calendar usually lives on the odds host; a separate feed is opt-in.
	cfg.Odds.CalendarAPIURL = getEnv("CALENDAR_API_URL", cfg.Odds.APIURL)

	// ── Gateway ───────────────────────────────────────────────────────────────
	cfg.Gateway = GatewayConfig{
		APIURL:  getEnv("GATEWAY_API_URL", ""),
		Timeout: getDuration("GATEWAY_TIMEOUT", 30*time.Second),
	}

	// ── Operator API ──────────────────────────────────────────────────────────
	cfg.Ops = OpsConfig{
		JWTSecret: getEnv("OPS_JWT_SECRET", ""),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
