package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/core"
	"github.com/kronos-automations/lead-engine/internal/ingest"
	"github.com/kronos-automations/lead-engine/internal/llm/openai"
	"github.com/kronos-automations/lead-engine/internal/outreach"
	repo "github.com/kronos-automations/lead-engine/internal/repository"
	"github.com/kronos-automations/lead-engine/internal/scrape"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	db, pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, pool, logger)

	if err := repo.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repo.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// Repositories
	leadsRepo := repo.NewLeadRepository(db, logger)
	runsRepo := repo.NewRunRepository(db, logger)
	configRepo := repo.NewConfigRepository(db, logger)

	// LLM client backs both the extraction agent and the outreach drafter.
	client := openai.NewClient(openai.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	// Ingestion pipeline: randomized trigger -> fetch -> extract -> upsert.
	fetcher := scrape.NewFetcher(&http.Client{Timeout: cfg.Scraper.FetchTimeout},
		cfg.Scraper.FetchAttempts, cfg.Scraper.FetchDelay, logger)
	ingestService := ingest.NewService(fetcher, client, leadsRepo, logger)
	scrapeScheduler := scrape.NewScheduler(cfg.Scraper.BaseInterval, func(ctx context.Context) {
		if _, err := ingestService.RunOnce(ctx, cfg.Scraper.TargetURL); err != nil {
			// Logged and dropped: the next scheduled trigger retries from scratch.
			logger.Warn("scrape run failed", "error", err)
		}
	}, logger)

	// Claim loop
	drafter := outreach.NewDrafter(client, leadsRepo, logger)
	comp := core.NewCompensationHandler(leadsRepo, runsRepo, logger)
	runner := core.NewRunner(leadsRepo, runsRepo, configRepo, nil, drafter, comp,
		cfg.Batch.ConfigKey, cfg.Batch.ProcessTimeout, logger)
	batchScheduler := scrape.NewScheduler(cfg.Batch.Interval, func(ctx context.Context) {
		if _, err := runner.Run(ctx); err != nil {
			logger.Warn("batch run failed", "error", err)
		}
	}, logger)

	sweeper := core.NewSweeper(leadsRepo, cfg.Batch.StaleAfter, logger)

	// gRPC health surface
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		scrapeScheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		batchScheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.RunPeriodic(ctx, cfg.Batch.SweepInterval)
	}()

	go func() {
		<-ctx.Done()
		hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
	}()

	logger.Info("leadsd serving", "grpc_addr", cfg.Server.GRPCAddr,
		"scrape_target", cfg.Scraper.TargetURL, "batch_interval", cfg.Batch.Interval)
	if err := grpcServer.Serve(lis); err != nil {
		logger.Error("grpc serve failed", "error", err)
	}

	wg.Wait()
	logger.Info("leadsd stopped")
}
