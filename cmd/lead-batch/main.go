package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/core"
	"github.com/kronos-automations/lead-engine/internal/entity"
	"github.com/kronos-automations/lead-engine/internal/export"
	"github.com/kronos-automations/lead-engine/internal/llm/openai"
	"github.com/kronos-automations/lead-engine/internal/outreach"
	repo "github.com/kronos-automations/lead-engine/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem = flag.Bool("inmem", false, "use in-memory SQLite database")
		seed  = flag.Bool("seed", false, "seed a default campaign config row (inmem runs need one)")
		out   = flag.String("out", "", "output XLSX lead book path (optional)")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	// Open the store
	var (
		db   *sql.DB
		pool *pgxpool.Pool
		err  error
	)
	if *inmem {
		db, err = repo.OpenInMemory(ctx, logger)
	} else {
		if cfg.Database.DSN == "" {
			printError("Error: DB_URL is required unless --inmem is set\n")
			os.Exit(1)
		}
		db, pool, err = repo.Open(ctx, repo.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
	}
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, pool, logger)

	// Wire repositories
	leadsRepo := repo.NewLeadRepository(db, logger)
	runsRepo := repo.NewRunRepository(db, logger)
	configRepo := repo.NewConfigRepository(db, logger)

	if *seed {
		seedCfg := &entity.RunConfig{
			ConfigKey: cfg.Batch.ConfigKey,
			BatchSize: entity.DefaultBatchSize,
			DelayMin:  entity.DefaultDelayMin,
			DelayMax:  entity.DefaultDelayMax,
			TargetURL: cfg.Scraper.TargetURL,
		}
		if err := configRepo.Put(ctx, seedCfg); err != nil {
			logger.Error("failed to seed campaign config", "error", err)
			os.Exit(1)
		}
		logger.Info("campaign config seeded", "config_key", seedCfg.ConfigKey)
	}

	// Setup OpenAI-backed drafter (graceful if missing)
	var processor core.Processor
	if cfg.LLM.APIKey != "" {
		client := openai.NewClient(openai.Config{
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		processor = outreach.NewDrafter(client, leadsRepo, logger)
		logger.Info("OpenAI client initialized", "model", cfg.LLM.Model)
	} else {
		logger.Warn("OpenAI API key not configured, leads will be marked done without a draft")
		processor = core.ProcessorFunc(func(ctx context.Context, _ *entity.Lead) error {
			return nil
		})
	}

	comp := core.NewCompensationHandler(leadsRepo, runsRepo, logger)
	runner := core.NewRunner(leadsRepo, runsRepo, configRepo, nil, processor, comp,
		cfg.Batch.ConfigKey, cfg.Batch.ProcessTimeout, logger)

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}

	// Optional lead book export
	if *out != "" {
		logger.Info("exporting lead book", "output", *out)
		exportService := export.NewService(leadsRepo, logger)
		xlsxBytes, err := exportService.ExportLeadsXLSX(ctx, 0)
		if err != nil {
			logger.Error("failed to export lead book", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}

	// Log summary
	logger.Info("batch run complete",
		"run_id", result.RunID,
		"fetched", result.Fetched,
		"claimed", result.Claimed,
		"skipped", result.Skipped,
		"processed", result.Processed,
		"failed", result.Failed)

	fmt.Printf("Batch run complete!\n")
	fmt.Printf("- Leads fetched: %d\n", result.Fetched)
	fmt.Printf("- Leads claimed: %d\n", result.Claimed)
	fmt.Printf("- Processed: %d\n", result.Processed)
	fmt.Printf("- Failures: %d\n", result.Failed)
	if *out != "" {
		fmt.Printf("- Lead book: %s\n", *out)
	}
}
