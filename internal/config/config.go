package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

type Config struct {
	Env                  string
	Host                 string
	DatabaseURL          string
	SessionSecret        string
	SessionTTL           time.Duration
	RedisURL             string
	LogoPath             string
	InstitutionName      string
	InstitutionAddress   string
	CORSOrigins          []string
	MigrationsDir        string
	AutoMigrate          bool
	MetricsEnabled       bool
	ProjectionWindowDays int
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env when present, then the environment, on top of defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	return FromViper(NewViper())
}

// LoadDatabase reads only what the maintenance commands need, so they run
// without a session secret.
func LoadDatabase() (dbURL, migrationsDir string) {
	_ = godotenv.Load()

	v := NewViper()
	dbURL = v.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = buildDatabaseURL(v)
	}
	return dbURL, v.GetString("MIGRATIONS_DIR")
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_HOST", ":8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("LOGO_PATH", "static/img/logo.png")
	v.SetDefault("INSTITUTION_NAME", "University Library")
	v.SetDefault("INSTITUTION_ADDRESS", "")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("PROJECTION_WINDOW_DAYS", 30)

	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                  v.GetString("APP_ENV"),
		Host:                 v.GetString("APP_HOST"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		RedisURL:             v.GetString("REDIS_URL"),
		LogoPath:             v.GetString("LOGO_PATH"),
		InstitutionName:      v.GetString("INSTITUTION_NAME"),
		InstitutionAddress:   v.GetString("INSTITUTION_ADDRESS"),
		CORSOrigins:          splitList(v.GetString("CORS_ORIGINS")),
		MigrationsDir:        v.GetString("MIGRATIONS_DIR"),
		AutoMigrate:          v.GetBool("AUTO_MIGRATE"),
		MetricsEnabled:       v.GetBool("METRICS_ENABLED"),
		ProjectionWindowDays: v.GetInt("PROJECTION_WINDOW_DAYS"),
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDatabaseURL(v)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is not set")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ProjectionWindowDays <= 0 {
		return errors.New("PROJECTION_WINDOW_DAYS must be positive")
	}
	return nil
}

func buildDatabaseURL(v *viper.Viper) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(v.GetString("DB_USER"), v.GetString("DB_PASSWORD")),
		Host:     net.JoinHostPort(v.GetString("DB_HOST"), v.GetString("DB_PORT")),
		Path:     "/" + v.GetString("DB_NAME"),
		RawQuery: "sslmode=" + url.QueryEscape(v.GetString("DB_SSLMODE")),
	}
	return u.String()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
