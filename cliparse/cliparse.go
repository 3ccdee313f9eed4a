package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                  int    `env:"PORT" envDefault:"3318"`
	DatabaseURL           string `env:"DATABASE_URL"`
	PrivilegedDatabaseURL string `env:"PRIVILEGED_DATABASE_URL"`
	DatabaseType          string `env:"DATABASE_TYPE" envDefault:"sqlite"`

	// Secrets
	SessionSecret          string `env:"SESSION_SECRET"`
	JWTSecret              string `env:"RESEARCHER_JWT_SECRET"`
	ResearcherEmail        string `env:"RESEARCHER_EMAIL"`
	ResearcherPasswordHash string `env:"RESEARCHER_PASSWORD_HASH"`

	PlaylistPolicy     string        `env:"PLAYLIST_POLICY" envDefault:"uniform"`
	CookieSecure       bool          `env:"COOKIE_SECURE"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ResearcherTTL      time.Duration `env:"RESEARCHER_TOKEN_TTL" envDefault:"12h"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	ThumbnailProxyPath string        `env:"THUMBNAIL_PROXY_PATH" envDefault:"/api/proxy-image"`
}

// ParseFlags reads the environment, applies CLI overrides, and validates.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Environment first; flags below default to whatever env provided
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	fs := flag.NewFlagSet("stimulus-rank", flag.ContinueOnError)

	// Network config
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL (restricted role)")
	fs.StringVar(&cfg.PrivilegedDatabaseURL, "privileged-d", cfg.PrivilegedDatabaseURL, "Database URL (privileged role)")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.PlaylistPolicy, "policy", cfg.PlaylistPolicy, "Playlist policy (uniform or stratified)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Participant session secret (prefer env)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Researcher token secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks required values and fills derived defaults.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.PrivilegedDatabaseURL == "" {
		c.PrivilegedDatabaseURL = c.DatabaseURL
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_TYPE must be sqlite or postgres, got %q", c.DatabaseType)
	}
	switch c.PlaylistPolicy {
	case "uniform", "stratified":
	default:
		return fmt.Errorf("PLAYLIST_POLICY must be uniform or stratified, got %q", c.PlaylistPolicy)
	}

	// Secrets - MUST be provided
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET required")
	}
	if c.JWTSecret == "" {
		return errors.New("RESEARCHER_JWT_SECRET required")
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ResearcherTTL <= 0 {
		return errors.New("RESEARCHER_TOKEN_TTL must be positive")
	}
	return nil
}
