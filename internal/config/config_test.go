package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Server.Port != 6822 {
		t.Fatalf("unexpected default port %d", cfg.Server.Port)
	}
	if cfg.Pricing.ColorRate != 5 || cfg.Pricing.GrayscaleRate != 2 {
		t.Fatalf("unexpected default rates: %+v", cfg.Pricing)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upload.Dir != "./uploads" {
		t.Fatalf("expected default upload dir, got %q", cfg.Upload.Dir)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  port: 9000\npricing:\n  color_rate: 7\nqueue:\n  require_confirmation: true\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Pricing.ColorRate != 7 {
		t.Fatalf("expected color rate 7, got %d", cfg.Pricing.ColorRate)
	}
	if cfg.Pricing.GrayscaleRate != 2 {
		t.Fatalf("partial pricing section clobbered defaults: %+v", cfg.Pricing)
	}
	if !cfg.Queue.RequireConfirmation {
		t.Fatalf("require_confirmation not read")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PRINTDESK_PORT", "7001")
	t.Setenv("PRINTDESK_CORS_ORIGIN", "https://example.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Fatalf("env port override ignored: %d", cfg.Server.Port)
	}
	if cfg.CORS.Origin != "https://example.test" {
		t.Fatalf("env origin override ignored: %q", cfg.CORS.Origin)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty upload dir", func(c *Config) { c.Upload.Dir = "" }},
		{"zero rate", func(c *Config) { c.Pricing.GrayscaleRate = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		cfg := defaults()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
