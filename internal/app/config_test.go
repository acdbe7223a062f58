package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SPIRIT_CONFIG_PATH", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Pipeline.DefaultProvider != "openai" {
		t.Fatalf("default provider: want=%q got=%q", "openai", cfg.Pipeline.DefaultProvider)
	}
	if cfg.Pipeline.ImageFailurePolicy != "fail_request" {
		t.Fatalf("failure policy: want=%q got=%q", "fail_request", cfg.Pipeline.ImageFailurePolicy)
	}
	if cfg.OpenAI.ImageModel != "dall-e-3" || cfg.OpenAI.ImageSize != "1024x1024" {
		t.Fatalf("openai image defaults: got=%q %q", cfg.OpenAI.ImageModel, cfg.OpenAI.ImageSize)
	}
	if cfg.LLM.Timeout != 60*time.Second || cfg.OpenAI.ImageTimeout != 120*time.Second {
		t.Fatalf("timeouts: got=%s %s", cfg.LLM.Timeout, cfg.OpenAI.ImageTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spirit.yaml")
	yml := `
http:
  addr: ":9000"
llm:
  provider: gemini
pipeline:
  default_provider: ideogram
  image_failure_policy: degrade
image_host:
  mode: s3
  bucket: spirits
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SPIRIT_CONFIG_PATH", path)
	t.Setenv("DEFAULT_IMAGE_PROVIDER", "Gemini")
	t.Setenv("IDEOGRAM_API_KEY", "k")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("addr: want=%q got=%q", ":9000", cfg.HTTP.Addr)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Fatalf("llm provider: want=%q got=%q", "gemini", cfg.LLM.Provider)
	}
	if cfg.Pipeline.DefaultProvider != "gemini" {
		t.Fatalf("env override: want=%q got=%q", "gemini", cfg.Pipeline.DefaultProvider)
	}
	if cfg.Pipeline.ImageFailurePolicy != "degrade" {
		t.Fatalf("policy: want=%q got=%q", "degrade", cfg.Pipeline.ImageFailurePolicy)
	}
	// Defaults survive for keys the file does not mention.
	if cfg.Retry.MaxRetries != 1 {
		t.Fatalf("retry default: want=1 got=%d", cfg.Retry.MaxRetries)
	}

	status := cfg.CredentialStatus()
	if !status.Ideogram || status.ImageHost {
		t.Fatalf("credential status: got=%+v", status)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.Pipeline.DefaultProvider = "dalle"
	cfg.Pipeline.ImageFailurePolicy = "ignore"
	cfg.ImageHost.Mode = "ftp"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"LLM_PROVIDER", "DEFAULT_IMAGE_PROVIDER", "IMAGE_FAILURE_POLICY", "IMAGE_HOST_MODE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should mention %s: got=%v", want, err)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("SPIRIT_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
