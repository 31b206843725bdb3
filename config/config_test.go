package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.ListTTL != 300 || cfg.Cache.ItemTTL != 600 {
		t.Errorf("Cache TTLs = %d/%d, want 300/600", cfg.Cache.ListTTL, cfg.Cache.ItemTTL)
	}
	if cfg.JWT.ExpireHours != 24 {
		t.Errorf("JWT.ExpireHours = %d, want 24", cfg.JWT.ExpireHours)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_LIST_TTL_SEC", "60")
	t.Setenv("WEBHOOK_SECRET", "hook-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.ListTTL != 60 {
		t.Errorf("Cache.ListTTL = %d, want 60", cfg.Cache.ListTTL)
	}
	if cfg.Webhook.Secret != "hook-secret" {
		t.Errorf("Webhook.Secret = %q", cfg.Webhook.Secret)
	}
}

func TestDSN(t *testing.T) {
	t.Run("built from components", func(t *testing.T) {
		db := DatabaseConfig{
			Host: "db.internal", Port: "5433", User: "app",
			Password: "pw", DBName: "lumiere", SSLMode: "require",
		}
		want := "postgres://app:pw@db.internal:5433/lumiere?sslmode=require"
		if got := db.DSN(); got != want {
			t.Errorf("DSN() = %q, want %q", got, want)
		}
	})

	t.Run("url wins when set", func(t *testing.T) {
		db := DatabaseConfig{URL: "postgres://elsewhere/other", Host: "ignored"}
		if got := db.DSN(); got != "postgres://elsewhere/other" {
			t.Errorf("DSN() = %q, want the explicit URL", got)
		}
	})

	t.Run("invalid int falls back", func(t *testing.T) {
		t.Setenv("CACHE_ITEM_TTL_SEC", "not-a-number")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Cache.ItemTTL != 600 {
			t.Errorf("Cache.ItemTTL = %d, want default 600", cfg.Cache.ItemTTL)
		}
	})
}
