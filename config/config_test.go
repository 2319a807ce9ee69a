package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Provider != "anthropic" {
		t.Errorf("unexpected default provider: %q", cfg.Provider)
	}
	if cfg.MaxRounds != 20 {
		t.Errorf("unexpected default round ceiling: %d", cfg.MaxRounds)
	}
	if cfg.MaxTokens != 1000 || cfg.SummaryMaxTokens != 200 {
		t.Errorf("unexpected default token limits: %d/%d", cfg.MaxTokens, cfg.SummaryMaxTokens)
	}
	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("unexpected default server addr: %q", cfg.Server.Addr)
	}
	if len(cfg.Cache.Expose) != 1 || cfg.Cache.Expose[0] != "*.md" {
		t.Errorf("unexpected default expose patterns: %v", cfg.Cache.Expose)
	}
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider: openai
model: gpt-4o
max_rounds: 5
cache:
  dir: /tmp/inkwell-cache
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFromFile(path, cfg); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" {
		t.Errorf("file values did not override defaults: %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.MaxRounds != 5 {
		t.Errorf("expected overridden round ceiling, got %d", cfg.MaxRounds)
	}
	if cfg.Cache.Dir != "/tmp/inkwell-cache" {
		t.Errorf("expected overridden cache dir, got %q", cfg.Cache.Dir)
	}

	// Fields absent from the file keep their defaults.
	if cfg.MaxTokens != 1000 {
		t.Errorf("absent fields must keep defaults, got max_tokens=%d", cfg.MaxTokens)
	}
	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("absent fields must keep defaults, got server.addr=%q", cfg.Server.Addr)
	}
}

func TestLoadFromFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadFromFile(path, Default()); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
