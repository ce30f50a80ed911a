// Package config loads server, worker and CLI settings.
// Values come from defaults, then an optional YAML file named by KADRY_CONFIG,
// then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "KADRY_CONFIG"

// Config is the complete application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	HTTP     HTTPConfig     `yaml:"http"`
	Mail     MailConfig     `yaml:"mail"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	Version  string `yaml:"version"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig configures sessions and access tokens.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockDuration     time.Duration `yaml:"lock_duration"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port               string        `yaml:"port"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	LoginRatePerMinute int           `yaml:"login_rate_per_minute"`
	IdempotencyEnabled bool          `yaml:"idempotency_enabled"`
	IdempotencyTTL     time.Duration `yaml:"idempotency_ttl"`
	CookieSecure       bool          `yaml:"cookie_secure"`
	CookieDomain       string        `yaml:"cookie_domain"`
	OrganisationTTL    time.Duration `yaml:"organisation_cache_ttl"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// Mail providers.
const (
	MailConsole = "console"
	MailSES     = "ses"
)

// MailConfig selects the email transport. The console provider logs messages instead of sending them.
// Empty SES keys fall back to the default AWS credential chain.
type MailConfig struct {
	Provider     string `yaml:"provider"`
	From         string `yaml:"from"`
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`
}

// WorkerConfig configures the background worker.
type WorkerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	BatchSize       int           `yaml:"batch_size"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:      "development",
			LogLevel: "info",
			Version:  "dev",
		},
		Database: DatabaseConfig{
			MaxConns: 20,
		},
		Auth: AuthConfig{
			JWTSecret:        "dev-secret-change-me-dev-secret-change-me",
			SessionTTL:       7 * 24 * time.Hour,
			AccessTokenTTL:   15 * time.Minute,
			MaxLoginAttempts: 5,
			LockDuration:     15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSOrigins:        []string{"http://localhost:3000"},
			LoginRatePerMinute: 10,
			IdempotencyTTL:     24 * time.Hour,
			OrganisationTTL:    5 * time.Minute,
			ShutdownTimeout:    30 * time.Second,
		},
		Mail: MailConfig{
			Provider: MailConsole,
			From:     "KadryHR <no-reply@kadryhr.pl>",
			Region:   "eu-central-1",
		},
		Worker: WorkerConfig{
			PollInterval:    5 * time.Second,
			BatchSize:       50,
			CleanupInterval: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the KADRY_CONFIG file and the environment.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("APP_ENV", &c.App.Env)
	e.str("LOG_LEVEL", &c.App.LogLevel)
	e.str("APP_VERSION", &c.App.Version)

	e.str("DATABASE_URL", &c.Database.URL)
	e.int32("DATABASE_MAX_CONNS", &c.Database.MaxConns)

	e.str("JWT_SECRET", &c.Auth.JWTSecret)
	e.duration("SESSION_TTL", &c.Auth.SessionTTL)
	e.duration("ACCESS_TOKEN_TTL", &c.Auth.AccessTokenTTL)
	e.int("MAX_LOGIN_ATTEMPTS", &c.Auth.MaxLoginAttempts)

	e.str("APP_PORT", &c.HTTP.Port)
	e.list("CORS_ORIGINS", &c.HTTP.CORSOrigins)
	e.int("LOGIN_RATE_PER_MINUTE", &c.HTTP.LoginRatePerMinute)
	e.bool("IDEMPOTENCY_ENABLED", &c.HTTP.IdempotencyEnabled)
	e.bool("COOKIE_SECURE", &c.HTTP.CookieSecure)
	e.str("COOKIE_DOMAIN", &c.HTTP.CookieDomain)

	e.str("MAIL_PROVIDER", &c.Mail.Provider)
	e.str("MAIL_FROM", &c.Mail.From)
	e.str("SES_REGION", &c.Mail.Region)
	e.str("SES_ACCESS_KEY", &c.Mail.AccessKey)
	e.str("SES_SECRET_KEY", &c.Mail.SecretKey)
	e.str("SES_SESSION_TOKEN", &c.Mail.SessionToken)

	e.duration("WORKER_POLL_INTERVAL", &c.Worker.PollInterval)
	e.int("WORKER_BATCH_SIZE", &c.Worker.BatchSize)

	return e.err
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsDevelopment reports whether the app runs with APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == Default().Auth.JWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if !c.HTTP.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE must be enabled in production")
		}
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.HTTP.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	switch c.Mail.Provider {
	case MailConsole:
	case MailSES:
		if c.Mail.Region == "" || c.Mail.From == "" {
			return fmt.Errorf("SES_REGION and MAIL_FROM are required for MAIL_PROVIDER=ses")
		}
		if (c.Mail.AccessKey == "") != (c.Mail.SecretKey == "") {
			return fmt.Errorf("SES_ACCESS_KEY and SES_SECRET_KEY must be set together")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	return nil
}

// envReader applies environment overrides and keeps the first parse error.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) int32(key string, dst *int32) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = int32(n)
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.get(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
	}
}
