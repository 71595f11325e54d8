package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/scanvault/orchestrator/internal/orchestrator"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/pkg/config"
	"github.com/scanvault/orchestrator/pkg/logger"
	"github.com/scanvault/orchestrator/pkg/statuscache"
)

// Headless run: one scan-and-process loop to completion, optionally followed
// by a repair batch.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	withRepair := flag.Bool("repair", false, "run a repair batch after processing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(cfg.Log.OutputPaths),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cache, err := statuscache.New(statuscache.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
		TTL:  cfg.Redis.TTL.Std(),
	})
	if err != nil {
		log.Error("Failed to connect status cache", logger.Error(err))
		os.Exit(1)
	}
	defer cache.Close()

	client := pipeline.NewClient(pipeline.Config{
		BaseURL:        cfg.Pipeline.BaseURL,
		RequestTimeout: cfg.Pipeline.RequestTimeout.Std(),
	}, log)

	orch := orchestrator.New(cfg, client, cache, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel the run on interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	if err := orch.Run(ctx); err != nil {
		log.Error("Processing run aborted", logger.Error(err))
		os.Exit(1)
	}

	if *withRepair {
		summary, err := orch.RunRepair(ctx)
		if err != nil {
			log.Error("Repair run failed", logger.Error(err))
			os.Exit(1)
		}
		if summary.ReloadNeeded {
			log.Info("Repairs applied, catalog state should be reloaded",
				logger.Int("completed", summary.Completed),
			)
		}
	}

	snapshot := orch.Snapshot()
	log.Info("Run finished",
		logger.Int("processed", snapshot.Processed),
		logger.Int("total", snapshot.Total),
		logger.String("status", snapshot.Status),
	)
}
