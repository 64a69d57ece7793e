package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate default config: %v", err)
	}
	if cfg.CallTimeout() != 9500*time.Millisecond {
		t.Fatalf("unexpected call timeout %v", cfg.CallTimeout())
	}
	if cfg.SuccessTTL() != 24*time.Hour {
		t.Fatalf("unexpected success TTL %v", cfg.SuccessTTL())
	}
	if cfg.DegradedTTL() != 5*time.Minute {
		t.Fatalf("unexpected degraded TTL %v", cfg.DegradedTTL())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Server.Bind != defaultBind {
		t.Fatalf("bind %q, want default %q", cfg.Server.Bind, defaultBind)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etymon.toml")
	content := strings.Join([]string{
		`[server]`,
		`bind = "127.0.0.1:9000"`,
		`allowed_origins = ["  https://app.example  ", ""]`,
		`[provider]`,
		`api_keys = [" key-one ", "key-two"]`,
		`base_url = "https://example.test/v1/"`,
		`[cache]`,
		`capacity = 5`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Server.Bind != "127.0.0.1:9000" {
		t.Fatalf("bind %q", cfg.Server.Bind)
	}
	if len(cfg.Provider.APIKeys) != 2 || cfg.Provider.APIKeys[0] != "key-one" {
		t.Fatalf("api keys not trimmed: %v", cfg.Provider.APIKeys)
	}
	if cfg.Provider.BaseURL != "https://example.test/v1" {
		t.Fatalf("base url not normalized: %q", cfg.Provider.BaseURL)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 1 || got[0] != "https://app.example" {
		t.Fatalf("origins not normalized: %v", got)
	}
	if cfg.Cache.Capacity != 5 {
		t.Fatalf("capacity %d", cfg.Cache.Capacity)
	}
	// Unset values fall back to defaults.
	if cfg.Cache.SuccessTTLHours != defaultSuccessTTLHours {
		t.Fatalf("success ttl hours %d", cfg.Cache.SuccessTTLHours)
	}
}

func TestLoadEnvKeysFallback(t *testing.T) {
	t.Setenv("ETYMON_API_KEYS", "alpha, beta ,,")
	path := filepath.Join(t.TempDir(), "etymon.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Provider.APIKeys) != 2 || cfg.Provider.APIKeys[1] != "beta" {
		t.Fatalf("env keys not parsed: %v", cfg.Provider.APIKeys)
	}
}

func TestValidateRejectsBadBind(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Server.Bind = "not-an-address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected bind validation error")
	}
}

func TestValidateRejectsInvertedTTLs(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Cache.SuccessTTLHours = 1
	cfg.Cache.DegradedTTLMin = 120
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected TTL ordering validation error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[provider]") {
		t.Fatal("sample config missing provider section")
	}
}
