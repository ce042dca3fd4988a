package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if !cfg.IsDev() {
		t.Error("IsDev() should be true by default")
	}
	if cfg.S3Bucket != "printforge-content" {
		t.Errorf("S3Bucket = %q", cfg.S3Bucket)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadDSN(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "catalog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := "postgres://shop:pw@db.internal:5433/catalog?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoadProductionGuards(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for default POSTGRES_PASSWORD in production")
	}

	t.Setenv("POSTGRES_PASSWORD", "real-password")
	if _, err := Load(); err == nil {
		t.Error("expected error for default JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "real-secret")
	if _, err := Load(); err != nil {
		t.Errorf("Load with real secrets: %v", err)
	}
}
