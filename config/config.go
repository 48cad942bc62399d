// Package config loads engine settings from an optional YAML file with
// environment overrides.
package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "REDUP_CONFIG"
	portEnv         = "PORT"
	logLevelEnv     = "LOG_LEVEL"
	userAgentEnv    = "REDUP_USER_AGENT"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	bucketEnv       = "STORAGE_BUCKET"
	localStorageEnv = "LOCAL_STORAGE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Model    ModelConfig    `yaml:"model"`
	Archive  ArchiveConfig  `yaml:"archive"`
	LogLevel string         `yaml:"logLevel"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// UpstreamConfig describes the source endpoints. Defaults point at
// production; tests override them with local servers.
type UpstreamConfig struct {
	BaseURL       string `yaml:"baseUrl"`
	LegacyBaseURL string `yaml:"legacyBaseUrl"`
	OAuthBaseURL  string `yaml:"oauthBaseUrl"`
	UserAgent     string `yaml:"userAgent"`
}

// ModelConfig defines how to contact the enrichment model. An empty
// APIKey disables enrichment and the deterministic mock takes over.
type ModelConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

// ArchiveConfig controls acquisition snapshot persistence. Disabled
// unless a bucket or a local path is configured.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket"`
	LocalPath string `yaml:"localPath"`
}

// Enabled reports whether snapshots should be written at all.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != "" || a.LocalPath != ""
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(userAgentEnv); v != "" {
		c.Upstream.UserAgent = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.Model.Model = v
	}
	if v := os.Getenv(bucketEnv); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv(localStorageEnv); v != "" {
		c.Archive.LocalPath = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != "" {
		base.Server.Port = override.Server.Port
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}

	if override.Upstream.BaseURL != "" {
		base.Upstream.BaseURL = override.Upstream.BaseURL
	}
	if override.Upstream.LegacyBaseURL != "" {
		base.Upstream.LegacyBaseURL = override.Upstream.LegacyBaseURL
	}
	if override.Upstream.OAuthBaseURL != "" {
		base.Upstream.OAuthBaseURL = override.Upstream.OAuthBaseURL
	}
	if override.Upstream.UserAgent != "" {
		base.Upstream.UserAgent = override.Upstream.UserAgent
	}

	if override.Model.BaseURL != "" {
		base.Model.BaseURL = override.Model.BaseURL
	}
	if override.Model.Model != "" {
		base.Model.Model = override.Model.Model
	}
	if override.Model.APIKey != "" {
		base.Model.APIKey = override.Model.APIKey
	}

	if override.Archive.Bucket != "" {
		base.Archive.Bucket = override.Archive.Bucket
	}
	if override.Archive.LocalPath != "" {
		base.Archive.LocalPath = override.Archive.LocalPath
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		LogLevel: "info",
		Model: ModelConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
	}
}
