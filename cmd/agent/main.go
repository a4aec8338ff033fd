package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipcull/clipcull-agent/internal/analyze"
	"github.com/clipcull/clipcull-agent/internal/api"
	"github.com/clipcull/clipcull-agent/internal/config"
	"github.com/clipcull/clipcull-agent/internal/db"
	"github.com/clipcull/clipcull-agent/internal/focus"
	"github.com/clipcull/clipcull-agent/internal/frames"
	"github.com/clipcull/clipcull-agent/internal/logging"
	"github.com/clipcull/clipcull-agent/internal/probe"
	"github.com/clipcull/clipcull-agent/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ThumbnailDir(), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipcull agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	prober, err := probe.NewFFprobe(cfg.FFprobePath(), cfg.ProbeTimeout())
	if err != nil {
		return fmt.Errorf("ffprobe unavailable: %w", err)
	}
	sampler, err := frames.NewFFmpegSampler(cfg.FFmpegPath(), cfg.ExtractTimeout(), logger.With("component", "sampler"))
	if err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	thumbnailer, err := analyze.NewFFmpegThumbnailer(cfg.FFmpegPath(), 30*time.Second)
	if err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}

	analyzer := analyze.New(
		prober,
		sampler,
		focus.NewScorer(cfg.FocusCalibration()),
		thumbnailer,
		logger.With("component", "analyzer"),
		analyze.Options{
			SampleInterval: cfg.SampleInterval(),
			ThumbnailDir:   cfg.ThumbnailDir(),
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := store.NewRunner(repo, analyzer, logger.With("component", "runner"))
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:         cfg.Port(),
		Repository:   repo,
		Runner:       runner,
		ThumbnailDir: cfg.ThumbnailDir(),
		Logger:       logger.With("component", "api"),
		StartTime:    startTime,
		Version:      config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	logger.Info("agent ready", "url", fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
