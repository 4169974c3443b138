package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.MaxQuestionLength != 5000 {
		t.Fatalf("max question length = %d", cfg.MaxQuestionLength)
	}
	if cfg.EngineConfig.SummaryModel != cfg.EngineConfig.Model {
		t.Fatalf("summary model = %q, want fallback to %q", cfg.EngineConfig.SummaryModel, cfg.EngineConfig.Model)
	}
	if cfg.OllamaConfig.BaseURL != "http://localhost:11434" {
		t.Fatalf("ollama url = %q", cfg.OllamaConfig.BaseURL)
	}
	if cfg.RateLimit.Burst == 0 {
		t.Fatal("rate limit burst not defaulted")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FAQ_ADDR", ":9999")
	t.Setenv("FAQ_MAX_QUESTION_LENGTH", "123")
	t.Setenv("FAQ_MODEL", "mistral")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.MaxQuestionLength != 123 {
		t.Fatalf("max question length = %d", cfg.MaxQuestionLength)
	}
	if cfg.EngineConfig.Model != "mistral" {
		t.Fatalf("model = %q", cfg.EngineConfig.Model)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: ":7070"
timeout: 5s
max_question_length: 42
engine:
  model: llama3
  summary_model: phi3
  timeout: 10s
rate_limit:
  per_second: 2
  burst: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.APITimeout)
	}
	if cfg.MaxQuestionLength != 42 {
		t.Fatalf("max question length = %d", cfg.MaxQuestionLength)
	}
	if cfg.EngineConfig.SummaryModel != "phi3" {
		t.Fatalf("summary model = %q", cfg.EngineConfig.SummaryModel)
	}
	if cfg.RateLimit.PerSecond != 2 || cfg.RateLimit.Burst != 4 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
