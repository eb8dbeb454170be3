package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"dreamdelve/cmd/game/ui"
	"dreamdelve/internal/config"
	"dreamdelve/internal/game/content"
	"dreamdelve/internal/game/dungeon"
	"dreamdelve/internal/game/flow"
	"dreamdelve/internal/imagegen"
	"dreamdelve/internal/llm"
	"dreamdelve/internal/logging"
	"dreamdelve/internal/observability"
	"dreamdelve/internal/pipeline"
	"dreamdelve/internal/prompt"
	"dreamdelve/internal/transcript"
)

// createApp wires the full dependency graph: config, logging, tracing,
// backends, pacer, transcript, pipeline, dungeon generator, content cache,
// image client, and the orchestrator behind the UI model. The returned
// cleanup closes everything the app opened.
func createApp(ctx context.Context) (ui.Model, *flow.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return ui.Model{}, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Path:     cfg.LogPath,
	})
	if err != nil {
		return ui.Model{}, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	debugMode := os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"

	tracingConfig := observability.LoadConfigFromEnv()
	tracerProvider, err := observability.InitTracing(ctx, tracingConfig)
	if err != nil {
		log.Warn("failed to initialize tracing", zap.Error(err))
		tracerProvider, _ = observability.InitTracing(ctx, observability.Config{Enabled: false})
	} else if tracerProvider.IsEnabled() {
		log.Info("OpenTelemetry tracing initialized and enabled")
	}

	backends := make(map[llm.Provider]llm.Backend)
	if cfg.PrimaryProvider == "remote" || cfg.FallbackProvider == "remote" {
		remote, err := llm.NewRemoteBackend(llm.RemoteConfig{
			BaseURL: cfg.RemoteBaseURL,
			APIKey:  cfg.RemoteAPIKey,
			Model:   cfg.RemoteModel,
			Timeout: cfg.RemoteTimeout,
		}, log)
		if err != nil {
			return ui.Model{}, nil, nil, fmt.Errorf("failed to build remote backend: %w", err)
		}
		backends[llm.ProviderRemote] = remote
	}
	if cfg.PrimaryProvider == "local" || cfg.FallbackProvider == "local" {
		local, err := llm.NewLocalBackend(llm.LocalConfig{
			Host:    cfg.LocalHost,
			Model:   cfg.LocalModel,
			Timeout: cfg.LocalTimeout,
		}, log)
		if err != nil {
			return ui.Model{}, nil, nil, fmt.Errorf("failed to build local backend: %w", err)
		}
		backends[llm.ProviderLocal] = local
	}

	recorder, err := transcript.NewRecorder(cfg.TranscriptPath)
	if err != nil {
		return ui.Model{}, nil, nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	fallback := make(map[llm.Provider]llm.Provider)
	if cfg.FallbackProvider != "" {
		fallback[llm.Provider(cfg.PrimaryProvider)] = llm.Provider(cfg.FallbackProvider)
	}

	pacer := pipeline.NewPacer(cfg.RequestSpacing)
	pipe := pipeline.New(backends, pipeline.Config{
		RetryBudget: cfg.RetryBudget,
		Backoff:     cfg.RetryBackoff,
		Fallback:    fallback,
	}, pacer, recorder, tracerProvider.GetTracer("dreamdelve"), log)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Info("dungeon generator seeded", zap.Int64("seed", seed))

	gen := dungeon.NewGenerator(rng, log)
	cache := content.NewCache()
	prompts := prompt.NewStore(log)

	var images flow.ImageGenerator
	if cfg.ImageServerURL != "" {
		client, err := imagegen.NewClient(imagegen.Config{
			BaseURL:     cfg.ImageServerURL,
			SavePath:    cfg.ImageSavePath,
			StyleSuffix: cfg.ImageStyle,
			Timeout:     cfg.ImageTimeout,
		}, log)
		if err != nil {
			return ui.Model{}, nil, nil, fmt.Errorf("failed to build image client: %w", err)
		}
		images = client
	}

	orch := flow.New(pipe, prompts, gen, cache, images, flow.Config{
		Levels:        cfg.Levels,
		RoomsPerLevel: cfg.RoomsPerLevel,
		LevelWidth:    cfg.LevelWidth,
		LevelHeight:   cfg.LevelHeight,
		Temperature:   float32(cfg.Temperature),
		StateRetries:  cfg.StateRetryBudget,
		Provider:      llm.Provider(cfg.PrimaryProvider),
	}, log)

	cleanup := func() {
		if err := recorder.Close(); err != nil {
			log.Warn("failed to close transcript", zap.Error(err))
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shut down tracing", zap.Error(err))
		}
		_ = log.Sync()
	}

	return ui.NewModel(orch, debugMode), orch, cleanup, nil
}
