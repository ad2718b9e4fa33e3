// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Environment always wins so deploys
// can patch a single value without editing the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr string   `yaml:"listen_addr"`
	Postgres   Postgres `yaml:"postgres"`
	Redis      Redis    `yaml:"redis"`
	Auth       Auth     `yaml:"auth"`
	HTTP       HTTP     `yaml:"http"`
}

// Postgres holds database connection settings.
type Postgres struct {
	DSN string `yaml:"dsn"`
}

// Redis holds session store connection settings.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Auth holds credential and authorization settings.
type Auth struct {
	Secret            string        `yaml:"secret"`
	AccessTokenSecret string        `yaml:"access_token_secret"`
	Issuer            string        `yaml:"issuer"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	EvalTimeout       time.Duration `yaml:"eval_timeout"`
	PublicPaths       []string      `yaml:"public_paths"`
	PublicPrefixes    []string      `yaml:"public_prefixes"`
}

// HTTP holds transport hardening settings.
type HTTP struct {
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
	RateRPS      float64 `yaml:"rate_rps"`
	RateBurst    int     `yaml:"rate_burst"`
}

// Default returns the configuration baseline before file and env layers.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Redis:      Redis{Addr: "127.0.0.1:6379"},
		Auth: Auth{
			Issuer:      "m-service",
			TokenTTL:    72 * time.Hour,
			EvalTimeout: 3 * time.Second,
			PublicPaths: []string{"/api/v1/auth/login", "/healthz", "/readyz", "/metrics"},
		},
		HTTP: HTTP{
			MaxBodyBytes: 1 << 20,
			RateRPS:      50,
			RateBurst:    100,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings without which the service cannot start safely.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("config: auth.secret is required (MS_AUTH_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	if c.Auth.EvalTimeout <= 0 {
		return errors.New("config: auth.eval_timeout must be positive")
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("config: postgres.dsn is required (MS_PG_DSN)")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.ListenAddr, "MS_LISTEN_ADDR")
	setString(&cfg.Postgres.DSN, "MS_PG_DSN")
	setString(&cfg.Redis.Addr, "MS_REDIS_ADDR")
	setString(&cfg.Redis.Password, "MS_REDIS_PASSWORD")
	if err := setInt(&cfg.Redis.DB, "MS_REDIS_DB"); err != nil {
		return err
	}
	setString(&cfg.Auth.Secret, "MS_AUTH_SECRET")
	setString(&cfg.Auth.AccessTokenSecret, "MS_ACCESS_TOKEN_SECRET")
	setString(&cfg.Auth.Issuer, "MS_AUTH_ISSUER")
	if err := setDuration(&cfg.Auth.TokenTTL, "MS_AUTH_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Auth.EvalTimeout, "MS_AUTH_EVAL_TIMEOUT"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("MS_PUBLIC_PATHS"); ok {
		cfg.Auth.PublicPaths = splitList(v)
	}
	if v, ok := os.LookupEnv("MS_PUBLIC_PREFIXES"); ok {
		cfg.Auth.PublicPrefixes = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
