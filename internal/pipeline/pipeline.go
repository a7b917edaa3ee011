package pipeline

import (
	"context"
	"sync"
	"time"

	"churnlab/domain/core"
	"churnlab/domain/customer"
	"churnlab/domain/model"
	"churnlab/domain/report"
	"churnlab/internal"
	"churnlab/internal/clean"
	"churnlab/internal/errors"
	"churnlab/internal/eval"
	"churnlab/internal/explain"
	featbuild "churnlab/internal/features"
	"churnlab/internal/split"
	"churnlab/internal/train/forest"
	"churnlab/internal/train/logistic"
)

// Config carries every parameter of a run explicitly, including the random
// seed, so runs are reproducible and comparable without ambient state.
type Config struct {
	Seed          int64
	TrainFraction float64
	Threshold     float64

	Clean    clean.Config
	Logistic logistic.Options
	Forest   forest.Options
	Explain  explain.Options
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		Seed:          42,
		TrainFraction: 0.8,
		Threshold:     0.5,
		Clean:         clean.DefaultConfig(),
		Logistic:      logistic.DefaultOptions(),
		Forest:        forest.DefaultOptions(),
		Explain:       explain.DefaultOptions(),
	}
}

// FamilyResult is the outcome of one classifier family's stage. A failed
// family records its error here instead of aborting the run: the two
// families are independent and one's failure must not block the other.
type FamilyResult struct {
	Family     model.Family
	Model      model.Classifier
	Evaluation *report.Evaluation
	Importance report.ImportanceRanking
	// ImpurityImportance is only populated for the forest family, which
	// exposes Gini-decrease importance as a fit-time byproduct.
	ImpurityImportance report.ImportanceRanking
	Err                error
}

// Failed reports whether the family's stage errored.
func (r FamilyResult) Failed() bool {
	return r.Err != nil
}

// Result is the complete outcome of one pipeline run.
type Result struct {
	RunID       core.RunID
	CleanReport customer.CleanReport
	TrainRows   int
	TestRows    int
	Seed        int64

	Logistic FamilyResult
	Forest   FamilyResult

	StartedAt time.Time
	Duration  time.Duration
}

// Run executes the full pipeline over raw records: clean, build features,
// stratified split, then fit, evaluate and explain both classifier families
// concurrently. Stage errors before the family fan-out abort the run; family
// errors are isolated per family.
func Run(ctx context.Context, raw []customer.RawRecord, cfg Config) (*Result, error) {
	logger := internal.DefaultLogger
	started := time.Now()
	res := &Result{
		RunID:     core.NewRunID(),
		Seed:      cfg.Seed,
		StartedAt: started,
	}
	logger.Info("run %s: %d raw records", res.RunID, len(raw))

	records, cleanReport, err := clean.New(cfg.Clean).Clean(raw)
	res.CleanReport = cleanReport
	if err != nil {
		return nil, errors.WithCode(errors.CodeDataIntegrity, err)
	}

	builder, err := featbuild.NewBuilder(records)
	if err != nil {
		return nil, errors.Wrap(err, "feature schema construction failed")
	}
	set, err := builder.Build(records)
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchemaMismatch, err)
	}
	logger.Debug("run %s: schema fingerprint %s", res.RunID, set.Schema.Fingerprint())

	sp, err := split.Stratified(set, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDataIntegrity, err)
	}
	res.TrainRows = sp.Train.Len()
	res.TestRows = sp.Test.Len()
	logger.Info("run %s: split %d train / %d test", res.RunID, res.TrainRows, res.TestRows)

	// The families are independent: run both, isolate failures.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Logistic = runLogistic(ctx, sp, cfg)
	}()
	go func() {
		defer wg.Done()
		res.Forest = runForest(ctx, sp, cfg)
	}()
	wg.Wait()

	for _, fam := range []FamilyResult{res.Logistic, res.Forest} {
		if fam.Failed() {
			logger.Error("run %s: %s failed: %v", res.RunID, fam.Family, fam.Err)
		} else {
			logger.Info("run %s: %s accuracy=%.4f auc=%.4f",
				res.RunID, fam.Family, fam.Evaluation.Accuracy, fam.Evaluation.AUC)
		}
	}

	res.Duration = time.Since(started)
	return res, nil
}

func runLogistic(ctx context.Context, sp *split.Split, cfg Config) FamilyResult {
	out := FamilyResult{Family: model.FamilyLogistic}
	m, err := logistic.Fit(sp.Train, cfg.Logistic)
	if err != nil {
		out.Err = errors.WithCode(errors.CodeFitError, err)
		return out
	}
	out.Model = m
	return scoreFamily(ctx, out, m, sp, cfg)
}

func runForest(ctx context.Context, sp *split.Split, cfg Config) FamilyResult {
	out := FamilyResult{Family: model.FamilyForest}
	opts := cfg.Forest
	opts.Seed = cfg.Seed
	m, err := forest.Fit(ctx, sp.Train, opts)
	if err != nil {
		out.Err = errors.WithCode(errors.CodeFitError, err)
		return out
	}
	out.Model = m
	out.ImpurityImportance = m.ImpurityImportance()
	return scoreFamily(ctx, out, m, sp, cfg)
}

func scoreFamily(ctx context.Context, out FamilyResult, m model.Classifier, sp *split.Split, cfg Config) FamilyResult {
	evaluation, err := eval.Evaluate(m, sp.Test, eval.Options{Threshold: cfg.Threshold})
	if err != nil {
		out.Err = errors.Wrapf(err, "evaluating %s", m.Family())
		return out
	}
	out.Evaluation = evaluation

	explainOpts := cfg.Explain
	explainOpts.Seed = cfg.Seed
	importance, err := explain.PermutationImportance(ctx, m, sp.Test, explainOpts)
	if err != nil {
		out.Err = errors.Wrapf(err, "explaining %s", m.Family())
		return out
	}
	out.Importance = importance
	return out
}
