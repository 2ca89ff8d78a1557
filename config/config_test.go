package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 3050 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Session.ID != "wa-otp-session" {
		t.Fatalf("session id = %q", cfg.Session.ID)
	}
	if !cfg.Browser.Headless {
		t.Fatal("headless must default to true")
	}
	if cfg.Auth.APIKey != "" {
		t.Fatal("api key must default to unset")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wagate.yaml")
	data := []byte("server:\n  port: 9000\nsession:\n  id: custom\nauth:\n  api_key: k1\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9000 || cfg.Session.ID != "custom" || cfg.Auth.APIKey != "k1" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("SESSION_ID", "env-session")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("HEADLESS", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 4000 || cfg.Session.ID != "env-session" || cfg.Auth.APIKey != "env-key" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Browser.Headless {
		t.Fatal("HEADLESS=false must disable headless")
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
}
