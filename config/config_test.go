package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(portEnv, "")
	t.Setenv(openAIKeyEnv, "")
	t.Setenv(localStorageEnv, "")
	t.Setenv(bucketEnv, "")

	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Model.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Model.Model)
	}
	if cfg.Archive.Enabled() {
		t.Error("archive enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redup.yaml")
	raw := []byte(`
server:
  port: "9090"
upstream:
  baseUrl: https://mirror.example
model:
  model: custom-model
archive:
  localPath: /tmp/snaps
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(portEnv, "")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(localStorageEnv, "")

	cfg := Load()
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://mirror.example" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Model.Model != "custom-model" {
		t.Errorf("model = %q", cfg.Model.Model)
	}
	if !cfg.Archive.Enabled() {
		t.Error("archive should be enabled with a local path")
	}
	// File omitted the model base URL, so the default survives the merge.
	if cfg.Model.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("model base url = %q", cfg.Model.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redup.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(portEnv, "7070")
	t.Setenv(openAIKeyEnv, "env-key")

	cfg := Load()
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, env must win", cfg.Server.Port)
	}
	if cfg.Model.APIKey != "env-key" {
		t.Errorf("api key = %q", cfg.Model.APIKey)
	}
}
