// Package main wires together the tech-news ingestion service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/api"
	"github.com/maan2529/tomatoz-project/internal/archive"
	"github.com/maan2529/tomatoz-project/internal/clock/system"
	"github.com/maan2529/tomatoz-project/internal/config"
	"github.com/maan2529/tomatoz-project/internal/diagram"
	"github.com/maan2529/tomatoz-project/internal/extract"
	"github.com/maan2529/tomatoz-project/internal/hash/sha256"
	"github.com/maan2529/tomatoz-project/internal/id/uuid"
	"github.com/maan2529/tomatoz-project/internal/llm"
	"github.com/maan2529/tomatoz-project/internal/logging"
	"github.com/maan2529/tomatoz-project/internal/metrics"
	"github.com/maan2529/tomatoz-project/internal/pipeline"
	memorypublisher "github.com/maan2529/tomatoz-project/internal/publish/memory"
	pubsubpublisher "github.com/maan2529/tomatoz-project/internal/publish/pubsub"
	"github.com/maan2529/tomatoz-project/internal/search"
	"github.com/maan2529/tomatoz-project/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	once := flag.String("once", "", "Run one pipeline pass for a technology or URL, print the report and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *once, logger); err != nil {
		logger.Error("service exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, once string, logger *zap.Logger) error {
	clock := system.New()
	hasher := sha256.New()
	idGen := uuid.New()

	blogs, diagrams, ready, cleanupStores, err := setupStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStores()

	snapshots, cleanupArchive, err := setupArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupArchive()

	publisher, cleanupPublisher, err := setupPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupPublisher()

	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	}, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("gemini init failed: %w", err)
	}

	searcher := search.NewClient(search.Config{
		APIKey:   cfg.Search.APIKey,
		Endpoint: cfg.Search.Endpoint,
		Timeout:  cfg.SearchTimeout(),
	}, logger.Named("search"))

	extractor := extract.NewService(snapshots, clock, logger.Named("extract"))
	extractor.Tune(extract.Tuning{
		Window:       cfg.Extract.Window,
		MaxRetries:   cfg.Extract.MaxRetries,
		RetryDelay:   time.Duration(cfg.Extract.RetryDelaySec) * time.Second,
		FetchTimeout: time.Duration(cfg.Extract.TimeoutSeconds) * time.Second,
		NavTimeout:   time.Duration(cfg.Extract.NavTimeoutSec) * time.Second,
		PerDomainRPS: cfg.Extract.PerDomainRPS,
	})

	orchestrator := pipeline.NewOrchestrator(
		searcher,
		extractor,
		gemini.Invoker("generate", float32(cfg.LLM.GenerateTemperature)),
		blogs,
		hasher,
		clock,
		idGen,
		publisher,
		cfg.PubSub.TopicName,
		logger.Named("pipeline"),
	)

	agent := diagram.NewAgent(
		gemini.Invoker("diagram", float32(cfg.LLM.DiagramTemperature)),
		blogs,
		diagrams,
		idGen,
		clock,
		publisher,
		cfg.PubSub.TopicName,
		logger.Named("diagram"),
	)
	agent.SetMaxRetries(cfg.Diagram.MaxRetries)

	if once != "" {
		return runOnce(ctx, orchestrator, cfg, once)
	}

	apiServer := api.NewServer(orchestrator, agent, blogs, diagrams, ready, cfg, logger.Named("api"))
	return serve(ctx, cfg, apiServer.Handler(), logger)
}

func runOnce(ctx context.Context, orchestrator *pipeline.Orchestrator, cfg config.Config, techOrURL string) error {
	report := orchestrator.Execute(ctx, techOrURL, pipeline.Options{
		MaxSources:  cfg.Pipeline.MaxSources,
		RecencyDays: cfg.Pipeline.RecencyDays,
	})
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(out))
	if !report.Success {
		return errors.New(report.Error)
	}
	return nil
}

func serve(ctx context.Context, cfg config.Config, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func setupStores(
	ctx context.Context,
	cfg config.Config,
	logger *zap.Logger,
) (pipeline.BlogStore, pipeline.DiagramStore, api.ReadyChecker, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Warn("no database configured, using in-memory stores")
		return store.NewMemoryBlogStore(), store.NewMemoryDiagramStore(), nil, func() {}, nil
	}

	if err := store.Migrate(cfg.DB.DSN); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	pool, err := store.NewPool(ctx, store.PostgresConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxConns),
		MinConns: int32(cfg.DB.MinConns),
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("database connected")

	ready := func(ctx context.Context) error { return pool.Ping(ctx) }
	return store.NewPostgresBlogStore(pool), store.NewPostgresDiagramStore(pool), ready, pool.Close, nil
}

func setupArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.Store, func(), error) {
	switch cfg.Archive.Backend {
	case "local":
		local, err := archive.NewLocal(cfg.Archive.LocalDir)
		if err != nil {
			return nil, nil, fmt.Errorf("local archive init failed: %w", err)
		}
		return local, func() {}, nil
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("gcs client close failed", zap.Error(err))
			}
		}
		return archive.NewGCS(client, cfg.Archive.GCSBucket), cleanup, nil
	default:
		return archive.NewMemory(), func() {}, nil
	}
}

func setupPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (pipeline.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		logger.Warn("no Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(), func() {}, nil
	}

	client, err := pubsubv2.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	logger.Info("Pub/Sub publisher initialized",
		zap.String("project", cfg.PubSub.ProjectID),
		zap.String("topic", cfg.PubSub.TopicName),
	)
	return pubsubpublisher.New(client.Publisher(cfg.PubSub.TopicName)), cleanup, nil
}
