package config

import (
	"os"
	"strconv"

	"churnlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Report   ReportConfig
}

// DataConfig locates the input dataset
type DataConfig struct {
	Path  string // CSV or Excel file with customer records
	Sheet string // Excel sheet name, defaults to Sheet1
}

// PipelineConfig holds the modeling parameters threaded through the run
type PipelineConfig struct {
	Seed            int64
	TrainFraction   float64
	Threshold       float64
	Trees           int
	PermutationReps int
	Workers         int
}

// DatabaseConfig holds optional result-store settings
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ReportConfig controls report rendering
type ReportConfig struct {
	Format  string // "markdown" or "html"
	OutPath string // empty means stdout
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Data: DataConfig{
			Path:  os.Getenv("CHURNLAB_DATA_PATH"),
			Sheet: envOr("CHURNLAB_DATA_SHEET", "Sheet1"),
		},
		Pipeline: PipelineConfig{
			Seed:            envInt64("CHURNLAB_SEED", 42),
			TrainFraction:   envFloat("CHURNLAB_TRAIN_FRACTION", 0.8),
			Threshold:       envFloat("CHURNLAB_THRESHOLD", 0.5),
			Trees:           envInt("CHURNLAB_TREES", 500),
			PermutationReps: envInt("CHURNLAB_PERMUTATION_REPS", 5),
			Workers:         envInt("CHURNLAB_WORKERS", 0), // 0 = GOMAXPROCS
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Report: ReportConfig{
			Format:  envOr("CHURNLAB_REPORT_FORMAT", "markdown"),
			OutPath: os.Getenv("CHURNLAB_REPORT_OUT"),
		},
	}
	cfg.Database.Enabled = cfg.Database.URL != ""

	if cfg.Data.Path == "" {
		return nil, errors.ConfigInvalid("CHURNLAB_DATA_PATH is required")
	}
	if cfg.Pipeline.TrainFraction <= 0 || cfg.Pipeline.TrainFraction >= 1 {
		return nil, errors.ConfigInvalid("CHURNLAB_TRAIN_FRACTION must be in (0, 1)")
	}
	if cfg.Pipeline.Threshold <= 0 || cfg.Pipeline.Threshold >= 1 {
		return nil, errors.ConfigInvalid("CHURNLAB_THRESHOLD must be in (0, 1)")
	}
	if cfg.Pipeline.Trees <= 0 {
		return nil, errors.ConfigInvalid("CHURNLAB_TREES must be positive")
	}
	if cfg.Report.Format != "markdown" && cfg.Report.Format != "html" {
		return nil, errors.ConfigInvalid("CHURNLAB_REPORT_FORMAT must be markdown or html")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
