package config

import (
	"os"
	"strings"
	"time"

	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Config holds the application configuration.
type Config struct {
	Port                 int           `koanf:"port"`
	DatabasePath         string        `koanf:"database_path"`
	JWTSecret            string        `koanf:"jwt_secret"`
	BcryptCost           int           `koanf:"bcrypt_cost"`
	StoreTimeout         time.Duration `koanf:"store_timeout"`
	AllowedOrigins       []string      `koanf:"allowed_origins"`
	LogLevel             string        `koanf:"log_level"`
	LogPretty            bool          `koanf:"log_pretty"`
	EventRetention       time.Duration `koanf:"event_retention"`
	HousekeepingSchedule string        `koanf:"housekeeping_schedule"`
}

// known maps environment variable names onto config keys.
var known = map[string]string{
	"PORT":                  "port",
	"DATABASE_PATH":         "database_path",
	"JWT_SECRET":            "jwt_secret",
	"BCRYPT_COST":           "bcrypt_cost",
	"STORE_TIMEOUT":         "store_timeout",
	"ALLOWED_ORIGINS":       "allowed_origins",
	"LOG_LEVEL":             "log_level",
	"LOG_PRETTY":            "log_pretty",
	"EVENT_RETENTION":       "event_retention",
	"HOUSEKEEPING_SCHEDULE": "housekeeping_schedule",
}

// Default returns the configuration used when nothing overrides a key.
// JWTSecret has no default.
func Default() *Config {
	return &Config{
		Port:                 5000,
		DatabasePath:         "./kochbuch.db",
		BcryptCost:           auth.DefaultCost,
		StoreTimeout:         5 * time.Second,
		AllowedOrigins:       []string{"http://localhost:3000"},
		LogLevel:             "info",
		EventRetention:       30 * 24 * time.Hour,
		HousekeepingSchedule: "@daily",
	}
}

// Load reads the optional YAML file at path, then applies environment
// variables on top and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.Environ)
}

func load(path string, environ func() []string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s failed", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			name, ok := known[key]
			if !ok {
				return "", nil
			}
			if name == "allowed_origins" {
				return name, splitList(value)
			}
			return name, value
		},
		EnvironFunc: environ,
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that would keep the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.DatabasePath == "" {
		return errors.New("database path must not be empty")
	}
	if c.BcryptCost < auth.MinCost || c.BcryptCost > auth.MaxCost {
		return errors.Errorf("bcrypt cost %d outside [%d, %d]", c.BcryptCost, auth.MinCost, auth.MaxCost)
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.EventRetention <= 0 {
		return errors.New("event retention must be positive")
	}
	if _, err := cron.ParseStandard(c.HousekeepingSchedule); err != nil {
		return errors.Wrapf(err, "invalid housekeeping schedule %q", c.HousekeepingSchedule)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
