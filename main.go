// Command redup-demo serves the community rule acquisition and
// compliance evaluation engine over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/DJSwig/redup-demo/analyzer"
	"github.com/DJSwig/redup-demo/archive"
	"github.com/DJSwig/redup-demo/config"
	"github.com/DJSwig/redup-demo/discovery"
	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/redditweb"
	"github.com/DJSwig/redup-demo/rules"
	"github.com/DJSwig/redup-demo/server"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	hook := loggingHook(logger)

	web := redditweb.New(redditweb.Config{
		Logger:        logger,
		UserAgent:     cfg.Upstream.UserAgent,
		BaseURL:       cfg.Upstream.BaseURL,
		LegacyBaseURL: cfg.Upstream.LegacyBaseURL,
	})
	oauth := redditweb.NewOAuth(redditweb.Config{
		Logger:    logger,
		UserAgent: cfg.Upstream.UserAgent,
		BaseURL:   cfg.Upstream.OAuthBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	})

	resolver := rules.NewResolver(web, oauth, logger, hook)
	discoverer := discovery.New(oauth, logger, hook)

	var enricher analyzer.Enricher
	if client := analyzer.NewModelClient(analyzer.ModelConfig{
		Logger:  logger,
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Model,
		BaseURL: cfg.Model.BaseURL,
	}); client != nil {
		enricher = client
		logger.Info("Model enrichment enabled", "model", cfg.Model.Model)
	} else {
		logger.Info("No model API key, analysis uses deterministic mock")
	}

	var archiver analyzer.Archiver
	if cfg.Archive.Enabled() {
		archiver = buildArchive(ctx, cfg.Archive, logger)
	}

	engine := analyzer.New(resolver, discoverer, enricher, archiver, logger, hook)

	srv := server.New(&server.Config{
		Analyzer: engine,
		Lookup:   resolver,
		Logger:   logger,
	})
	if err := srv.ListenAndServe(cfg.Server.Port); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// buildArchive prefers local storage when configured, matching how the
// rest of the stack treats local paths as development mode.
func buildArchive(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) analyzer.Archiver {
	if cfg.LocalPath != "" {
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			logger.Error("Failed to create local archive directory", "path", cfg.LocalPath, "error", err)
			os.Exit(1)
		}
		logger.Info("Archiving snapshots to local storage", "path", cfg.LocalPath)
		return archive.New(nil, "", cfg.LocalPath, logger)
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Error("Failed to initialize storage client", "error", err)
		os.Exit(1)
	}
	logger.Info("Archiving snapshots to bucket", "bucket", cfg.Bucket)
	return archive.New(client, cfg.Bucket, "", logger)
}

// loggingHook turns pipeline events into structured log lines.
func loggingHook(logger *slog.Logger) redup.Hook {
	return func(ev redup.Event) {
		attrs := []any{
			"stage", string(ev.Stage),
			"duration_ms", ev.Duration.Milliseconds(),
		}
		if ev.Community != "" {
			attrs = append(attrs, "community", ev.Community)
		}
		if ev.Strategy != "" {
			attrs = append(attrs, "strategy", ev.Strategy, "rule_count", ev.RuleCount)
		}
		if ev.Err != nil {
			attrs = append(attrs, "error", ev.Err)
			logger.Warn("Pipeline stage failed", attrs...)
			return
		}
		logger.Info("Pipeline stage finished", attrs...)
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
