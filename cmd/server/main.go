package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scanvault/orchestrator/api/handlers"
	"github.com/scanvault/orchestrator/api/routes"
	"github.com/scanvault/orchestrator/internal/orchestrator"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/pkg/config"
	"github.com/scanvault/orchestrator/pkg/logger"
	"github.com/scanvault/orchestrator/pkg/statuscache"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// init logger
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
		log.Fatal("Failed to connect status cache", logger.Error(err))
	}
	defer cache.Close()

	client := pipeline.NewClient(pipeline.Config{
		BaseURL:        cfg.Pipeline.BaseURL,
		RequestTimeout: cfg.Pipeline.RequestTimeout.Std(),
	}, log)

	orch := orchestrator.New(cfg, client, cache, log)

	// init handlers
	h := handlers.NewHandlers(orch, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
