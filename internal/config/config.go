// Package config loads process configuration from the environment, with an
// optional config file underneath it.
//
// Precedence, highest first: environment variable, config file, default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends selectable through DATABASE_URL.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

const minSecretLength = 16

type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV"`
	Port            int           `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBPoolSize      int           `mapstructure:"DB_POOL_SIZE"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn    string        `mapstructure:"JWT_EXPIRES_IN"`
	BcryptCost      int           `mapstructure:"BCRYPT_COST"`
	MaxPageLimit    int           `mapstructure:"MAX_PAGE_LIMIT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// TokenTTL is JWT_EXPIRES_IN parsed by Load.
	TokenTTL time.Duration `mapstructure:"-"`
}

// Load reads configuration. configFile may be empty; when set it can be any
// format viper understands, including a .env file.
func Load(configFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 3000)
	v.SetDefault("DATABASE_URL", "sqlite://data/social.db")
	v.SetDefault("DB_POOL_SIZE", 10)
	// No usable default; registered so AutomaticEnv picks it up in Unmarshal.
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "15m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_PAGE_LIMIT", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}

	ttl, err := ParseTokenTTL(cfg.JWTExpiresIn)
	if err != nil {
		return Config{}, fmt.Errorf("config: JWT_EXPIRES_IN: %w", err)
	}
	cfg.TokenTTL = ttl

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be 1..65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.BcryptCost < 10 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be 10..31, got %d", c.BcryptCost))
	}
	if c.MaxPageLimit < 0 {
		errs = append(errs, errors.New("MAX_PAGE_LIMIT must not be negative"))
	}
	if c.DBPoolSize < 1 {
		errs = append(errs, errors.New("DB_POOL_SIZE must be at least 1"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if _, _, err := c.Store(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Store splits DATABASE_URL into a backend and its DSN.
//
//	sqlite://data/social.db        → ("sqlite", "data/social.db")
//	sqlite://:memory:              → ("sqlite", ":memory:")
//	postgres://user:pw@host/db     → ("postgres", the whole URL)
func (c Config) Store() (kind, dsn string, err error) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		path := strings.TrimPrefix(c.DatabaseURL, "sqlite://")
		if path == "" {
			return "", "", errors.New("DATABASE_URL: sqlite:// needs a path")
		}
		return StoreSQLite, path, nil
	case strings.HasPrefix(c.DatabaseURL, "postgres://"),
		strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return StorePostgres, c.DatabaseURL, nil
	default:
		return "", "", fmt.Errorf("DATABASE_URL must start with sqlite:// or postgres://, got %q", redact(c.DatabaseURL))
	}
}

// SlogLevel returns LOG_LEVEL as a slog.Level. Validate has already
// rejected unknown names.
func (c Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// ParseTokenTTL accepts a Go duration ("15m", "1h30m"), a whole number of
// seconds ("900") or a number of days ("7d").
func ParseTokenTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return l, nil
}

// redact drops everything after the scheme so credentials never reach a log.
func redact(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i+3] + "…"
	}
	if len(u) > 8 {
		return u[:8] + "…"
	}
	return u
}
