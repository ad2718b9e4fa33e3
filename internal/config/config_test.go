package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
listen_addr: ":9090"
postgres:
  dsn: "postgres://app@localhost/app"
redis:
  addr: "redis-1:6379"
  db: 3
auth:
  secret: "file-secret"
  token_ttl: 24h
  eval_timeout: 2s
  public_paths:
    - /api/v1/auth/login
  public_prefixes:
    - /api/v1/public/
http:
  max_body_bytes: 2048
  rate_rps: 10
  rate_burst: 20
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Redis.Addr != "redis-1:6379" || cfg.Redis.DB != 3 {
		t.Fatalf("Redis = %+v", cfg.Redis)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.HTTP.MaxBodyBytes != 2048 {
		t.Fatalf("MaxBodyBytes = %d", cfg.HTTP.MaxBodyBytes)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
postgres:
  dsn: "postgres://file@localhost/app"
auth:
  secret: "file-secret"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MS_PG_DSN", "postgres://env@localhost/app")
	t.Setenv("MS_AUTH_SECRET", "env-secret")
	t.Setenv("MS_AUTH_TOKEN_TTL", "12h")
	t.Setenv("MS_PUBLIC_PATHS", "/a, /b")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://env@localhost/app" {
		t.Fatalf("DSN = %q", cfg.Postgres.DSN)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Fatalf("Secret = %q", cfg.Auth.Secret)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if len(cfg.Auth.PublicPaths) != 2 || cfg.Auth.PublicPaths[0] != "/a" {
		t.Fatalf("PublicPaths = %v", cfg.Auth.PublicPaths)
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Auth.Secret = "s"
	base.Postgres.DSN = "postgres://app@localhost/app"
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noSecret := base
	noSecret.Auth.Secret = ""
	if err := noSecret.Validate(); err == nil {
		t.Fatal("expected error for missing secret")
	}

	noDSN := base
	noDSN.Postgres.DSN = ""
	if err := noDSN.Validate(); err == nil {
		t.Fatal("expected error for missing dsn")
	}

	badTTL := base
	badTTL.Auth.TokenTTL = 0
	if err := badTTL.Validate(); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestBadDurationEnv(t *testing.T) {
	t.Setenv("MS_AUTH_TOKEN_TTL", "not-a-duration")
	t.Setenv("MS_AUTH_SECRET", "s")
	t.Setenv("MS_PG_DSN", "postgres://app@localhost/app")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
