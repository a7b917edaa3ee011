package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"churnlab/adapters/postgres"
	"churnlab/adapters/tabular"
	"churnlab/internal"
	"churnlab/internal/config"
	apperrors "churnlab/internal/errors"
	"churnlab/internal/pipeline"
	"churnlab/internal/render"
)

func main() {
	if err := run(); err != nil {
		internal.DefaultLogger.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := internal.DefaultLogger

	raw, err := tabular.ReadFile(cfg.Data.Path, cfg.Data.Sheet)
	if err != nil {
		return err
	}
	logger.Info("loaded %d rows from %s", len(raw), cfg.Data.Path)

	runCfg := pipeline.DefaultConfig()
	runCfg.Seed = cfg.Pipeline.Seed
	runCfg.TrainFraction = cfg.Pipeline.TrainFraction
	runCfg.Threshold = cfg.Pipeline.Threshold
	runCfg.Forest.Trees = cfg.Pipeline.Trees
	runCfg.Forest.Workers = cfg.Pipeline.Workers
	runCfg.Explain.Repetitions = cfg.Pipeline.PermutationReps
	runCfg.Explain.Workers = cfg.Pipeline.Workers

	ctx := context.Background()
	res, err := pipeline.Run(ctx, raw, runCfg)
	if err != nil {
		return err
	}

	var out []byte
	if cfg.Report.Format == "html" {
		out = render.HTML(res)
	} else {
		out = []byte(render.Markdown(res))
	}
	if cfg.Report.OutPath != "" {
		if err := os.WriteFile(cfg.Report.OutPath, out, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("report written to %s", cfg.Report.OutPath)
	} else {
		fmt.Print(string(out))
	}

	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			return apperrors.WithCode(apperrors.CodeDatabaseError, err)
		}
		defer db.Close()
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return apperrors.WithCode(apperrors.CodeDatabaseError, err)
		}
		if err := repo.SaveRun(ctx, res); err != nil {
			return apperrors.WithCode(apperrors.CodeDatabaseError, err)
		}
		logger.Info("run %s persisted", res.RunID)
	}

	// A family failure is isolated during the run but still surfaces in
	// the exit code.
	if res.Logistic.Failed() || res.Forest.Failed() {
		return fmt.Errorf("one or more model families failed; see report")
	}
	return nil
}
