package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"churnlab/domain/core"
	"churnlab/domain/report"
	"churnlab/internal/pipeline"
)

// RunRepository persists run outcomes: metadata, evaluation metrics, and
// importance rankings. Trained model parameters are deliberately not stored;
// there is no model persistence format.
type RunRepository struct {
	db *sqlx.DB
}

// Connect opens a Postgres connection pool.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewRunRepository creates a run repository over an open connection.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS churn_runs (
	id            TEXT PRIMARY KEY,
	seed          BIGINT NOT NULL,
	input_rows    INT NOT NULL,
	retained_rows INT NOT NULL,
	train_rows    INT NOT NULL,
	test_rows     INT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS churn_evaluations (
	run_id     TEXT NOT NULL REFERENCES churn_runs(id) ON DELETE CASCADE,
	family     TEXT NOT NULL,
	metrics    JSONB NOT NULL,
	confusion  JSONB NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, family)
);

CREATE TABLE IF NOT EXISTS churn_importances (
	run_id   TEXT NOT NULL REFERENCES churn_runs(id) ON DELETE CASCADE,
	family   TEXT NOT NULL,
	kind     TEXT NOT NULL, -- 'permutation' or 'impurity'
	rank     INT NOT NULL,
	feature  TEXT NOT NULL,
	score    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, family, kind, rank)
);`

// EnsureSchema creates the result tables if they do not exist.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create result tables: %w", err)
	}
	return nil
}

// SaveRun stores a completed run and its per-family outcomes.
func (r *RunRepository) SaveRun(ctx context.Context, res *pipeline.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO churn_runs (id, seed, input_rows, retained_rows, train_rows, test_rows, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.RunID, res.Seed, res.CleanReport.Input, res.CleanReport.Retained,
		res.TrainRows, res.TestRows, res.StartedAt, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, fam := range []pipeline.FamilyResult{res.Logistic, res.Forest} {
		if err := saveFamily(ctx, tx, res.RunID, fam); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func saveFamily(ctx context.Context, tx *sqlx.Tx, runID core.RunID, fam pipeline.FamilyResult) error {
	metricsJSON := []byte("{}")
	confusionJSON := []byte("{}")
	errText := ""
	if fam.Failed() {
		errText = fam.Err.Error()
	} else {
		var err error
		if metricsJSON, err = json.Marshal(fam.Evaluation.Metrics()); err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}
		if confusionJSON, err = json.Marshal(fam.Evaluation.Confusion); err != nil {
			return fmt.Errorf("failed to marshal confusion: %w", err)
		}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO churn_evaluations (run_id, family, metrics, confusion, error)
		 VALUES ($1, $2, $3, $4, $5)`,
		runID, fam.Family, metricsJSON, confusionJSON, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation for %s: %w", fam.Family, err)
	}

	if err := saveRanking(ctx, tx, runID, string(fam.Family), "permutation", fam.Importance); err != nil {
		return err
	}
	return saveRanking(ctx, tx, runID, string(fam.Family), "impurity", fam.ImpurityImportance)
}

func saveRanking(ctx context.Context, tx *sqlx.Tx, runID core.RunID, family, kind string, ranking report.ImportanceRanking) error {
	for rank, imp := range ranking {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO churn_importances (run_id, family, kind, rank, feature, score)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, family, kind, rank+1, imp.Feature, imp.Score,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s importance for %s: %w", kind, family, err)
		}
	}
	return nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID        string    `db:"id"`
	Seed      int64     `db:"seed"`
	TrainRows int       `db:"train_rows"`
	TestRows  int       `db:"test_rows"`
	StartedAt time.Time `db:"started_at"`
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunSummary
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, seed, train_rows, test_rows, started_at
		 FROM churn_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
