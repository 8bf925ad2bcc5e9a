package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cropyield/config"
	"cropyield/db"
	qhttp "cropyield/http"
	"cropyield/logging"
	"cropyield/ml"
	"cropyield/presentation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	// 2. Load artifacts; the process must not serve without a valid model
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	predictor, err := ml.LoadPredictor(ctx, cfg.Artifacts.PipelinePath, cfg.Artifacts.CatalogPath)
	cancel()
	if err != nil {
		logger.Fatal("failed to load model artifacts",
			zap.String("pipeline", cfg.Artifacts.PipelinePath),
			zap.String("catalog", cfg.Artifacts.CatalogPath),
			zap.Error(err),
		)
	}
	meta := predictor.Pipeline().Metadata()
	if predictor.Pipeline().TargetDefaulted() {
		logger.Warn("pipeline does not declare target_transform, assuming log",
			zap.String("pipeline", cfg.Artifacts.PipelinePath))
	}
	logger.Info("model loaded",
		zap.Int("version", meta.Version),
		zap.String("regressor", meta.Regressor),
		zap.String("target_transform", string(meta.TargetTransform)),
		zap.Int("encoded_width", meta.EncodedWidth),
		zap.Int("crops", len(predictor.Catalog().Crops())),
	)

	cached, err := ml.NewCachedPredictor(predictor, cfg.Cache.Size)
	if err != nil {
		logger.Fatal("failed to build prediction cache", zap.Error(err))
	}

	// 3. History is optional; nil interface disables it
	var history qhttp.History
	if cfg.History.Path != "" {
		store, err := db.OpenHistory(cfg.History.Path)
		if err != nil {
			logger.Fatal("failed to open history", zap.String("path", cfg.History.Path), zap.Error(err))
		}
		defer store.Close()
		history = store
		logger.Info("history enabled", zap.String("path", cfg.History.Path))
	}

	renderer, err := presentation.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	handlers := qhttp.NewHandlers(qhttp.Dependencies{
		Predictor:    cached,
		Catalog:      predictor.Catalog(),
		Model:        meta,
		History:      history,
		HistoryLimit: cfg.History.Limit,
		Renderer:     renderer,
		Logger:       logger,
	})

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, handlers, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if _, err := os.Stat(*configPath); err == nil {
		watcher, err := config.WatchLogLevel(*configPath, level, logger)
		if err != nil {
			logger.Warn("log level hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
