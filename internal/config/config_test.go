package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dropDatabas3/authcore/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.Lockout.Threshold != 5 {
		t.Errorf("lockout threshold = %d", cfg.Auth.Lockout.Threshold)
	}
	if config.Dur(cfg.Auth.Lockout.Window) != 15*time.Minute {
		t.Errorf("lockout window = %q", cfg.Auth.Lockout.Window)
	}
	if config.Dur(cfg.Auth.Reset.TTL) != time.Hour {
		t.Errorf("reset ttl = %q", cfg.Auth.Reset.TTL)
	}
	if config.Dur(cfg.Auth.Verify.TTL) != 24*time.Hour {
		t.Errorf("verify ttl = %q", cfg.Auth.Verify.TTL)
	}
	if cfg.Rate.MaxRequests != 100 {
		t.Errorf("rate max = %d", cfg.Rate.MaxRequests)
	}
	if cfg.Cache.Kind != "memory" {
		t.Errorf("cache kind = %q", cfg.Cache.Kind)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: ":9090"
auth:
  lockout:
    threshold: 3
    window: 5m
jwt:
  secret: "test-secret"
  refresh_rotation: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.Lockout.Threshold != 3 {
		t.Errorf("threshold = %d", cfg.Auth.Lockout.Threshold)
	}
	if !cfg.JWT.RefreshRotation {
		t.Error("refresh_rotation no se leyó")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("AUTH_LOCKOUT_THRESHOLD", "9")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.Lockout.Threshold != 9 {
		t.Errorf("threshold = %d", cfg.Auth.Lockout.Threshold)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
}

func TestValidateRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  reset:\n    ttl: banana\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("duration inválida debería fallar")
	}
}

func TestProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if _, err := config.Load(""); err == nil {
		t.Fatal("prod sin jwt.secret debería fallar")
	}
	t.Setenv("JWT_SECRET", "algo")
	if _, err := config.Load(""); err != nil {
		t.Fatalf("prod con secret: %v", err)
	}
}
