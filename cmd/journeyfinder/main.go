package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/journeyfinder/internal/common/config"
	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/internal/search"
	"github.com/journeyfinder/internal/server"
	"github.com/journeyfinder/internal/ui"
)

func main() {
	// Load .env if present; plain environment variables work the same
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(
		logger.ParseLevel(cfg.Logging.Level),
		logger.ConsoleWriter(),
		logger.FileWriter(cfg.Logging.FilePath),
	)

	log.Info("journeyfinder starting",
		"dataset_path", cfg.Dataset.Path,
		"transfer_mode", cfg.Dataset.TransferMode,
		"max_search_hours", cfg.Search.MaxSearchHours,
		"http", cfg.HTTP.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ds, err := dataset.Load(ctx, cfg.Dataset, log)
	if err != nil {
		log.Fatal("Failed to load dataset", "error", err)
	}

	horizon := time.Duration(cfg.Search.MaxSearchHours) * time.Hour
	engine := search.NewEngine(ds, horizon, log)

	if cfg.HTTP.Enabled {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			log.Info("Shutdown signal received")
			cancel()
		}()
		if err := server.New(ds, engine, log).ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
			log.Fatal("HTTP server error", "error", err)
		}
		return
	}

	if err := ui.New(ds, engine, cfg.Profile, log).Run(); err != nil {
		log.Fatal("Terminal UI error", "error", err)
	}
}
