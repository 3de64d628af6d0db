package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/medgraph/loader/internal/api"
	"github.com/medgraph/loader/internal/checkpoint"
	"github.com/medgraph/loader/internal/config"
	"github.com/medgraph/loader/internal/graph"
	"github.com/medgraph/loader/internal/ingestion"
	"github.com/medgraph/loader/internal/progress"
	"github.com/medgraph/loader/internal/schema"
	minioclient "github.com/medgraph/loader/internal/store/minio"
	vk "github.com/medgraph/loader/internal/store/valkey"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Neo4j
	graphClient, err := graph.NewClient(cfg.Neo4j)
	if err != nil {
		logger.Error("failed to create neo4j client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer graphClient.Close(ctx)
	if err := graphClient.Verify(ctx); err != nil {
		logger.Error("failed to connect to neo4j", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to neo4j", slog.String("uri", cfg.Neo4j.URI))

	// Valkey (optional event stream)
	publisher := progress.NewPublisher(nil, logger)
	if cfg.Valkey.Addr != "" {
		vkClient, err := vk.NewClient(cfg.Valkey)
		if err != nil {
			logger.Error("failed to connect to valkey", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer vkClient.Close()
		publisher = progress.NewPublisher(vkClient, logger)
		logger.Info("connected to valkey", slog.String("addr", cfg.Valkey.Addr))
	}

	// MinIO (optional remote source files)
	var remote *minioclient.Client
	if cfg.MinIO.Endpoint != "" {
		remote, err = minioclient.NewClient(cfg.MinIO)
		if err != nil {
			logger.Error("failed to create minio client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("object storage enabled", slog.String("bucket", cfg.MinIO.Bucket))
	}

	checkpoints, err := checkpoint.NewFileStore(cfg.Loader.CheckpointDir)
	if err != nil {
		logger.Error("failed to open checkpoint store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	catalog := schema.Catalog()
	fetcher := ingestion.NewFetcher(cfg.Loader.DataDir, cfg.Loader.SpoolDir, remote, logger)
	pipeline := ingestion.NewPipeline(cfg.Loader, checkpoints, logger)
	orchestrator := ingestion.NewOrchestrator(cfg.Loader, catalog, graphClient, pipeline, fetcher, publisher, logger)

	var wg sync.WaitGroup

	// Status server
	var server *http.Server
	if cfg.Server.Enabled {
		router := api.NewRouter(logger, graphClient, orchestrator)
		server = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("status server listening", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server error", slog.String("error", err.Error()))
			}
		}()
	}

	runErr := orchestrator.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown", slog.String("error", err.Error()))
		}
		cancel()
	}
	wg.Wait()

	if runErr != nil {
		logger.Error("load run failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	logger.Info("loader stopped")
}
