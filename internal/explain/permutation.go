package explain

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"churnlab/domain/core"
	"churnlab/domain/features"
	"churnlab/domain/model"
	"churnlab/domain/report"
	"churnlab/internal/eval"
)

// Options control the importance computation.
type Options struct {
	// Repetitions is the number of independent permutations averaged per
	// feature. A single permutation is too noisy to rank features on;
	// the default is 5.
	Repetitions int
	Workers     int   // parallel feature columns, default GOMAXPROCS
	Seed        int64 // base seed; per-permutation rngs derive from it
}

// DefaultOptions returns the standard controls.
func DefaultOptions() Options {
	return Options{Repetitions: 5}
}

// PermutationImportance scores each feature by how much the model's AUC
// drops when that feature's values are randomly permuted across rows,
// breaking its association with the label while preserving its marginal
// distribution. The measure is model-family-agnostic: it only needs churn
// probabilities, so the same ranking is comparable across both families.
func PermutationImportance(ctx context.Context, m model.Classifier, set *features.Set, opts Options) (report.ImportanceRanking, error) {
	if opts.Repetitions <= 0 {
		opts.Repetitions = 5
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if err := m.Schema().Compatible(set.Schema); err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, core.ErrEmptyInput
	}

	baseProbs, err := eval.Probabilities(m, set)
	if err != nil {
		return nil, err
	}
	baseline := eval.AUC(baseProbs, set.Labels)

	cols := len(set.Schema.Columns)
	decreases := make([]float64, cols)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for col := 0; col < cols; col++ {
		col := col
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var total float64
			values := set.ColumnValues(col)
			permuted := make([]float64, len(values))
			buf := make([]float64, cols)
			probs := make([]float64, set.Len())
			for rep := 0; rep < opts.Repetitions; rep++ {
				rng := rand.New(rand.NewSource(permSeed(opts.Seed, col, rep)))
				copy(permuted, values)
				rng.Shuffle(len(permuted), func(i, j int) {
					permuted[i], permuted[j] = permuted[j], permuted[i]
				})
				for i, row := range set.Rows {
					copy(buf, row)
					buf[col] = permuted[i]
					p, err := m.PredictProba(buf)
					if err != nil {
						return err
					}
					probs[i] = p
				}
				total += baseline - eval.AUC(probs, set.Labels)
			}
			decreases[col] = total / float64(opts.Repetitions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, cols)
	for col, c := range set.Schema.Columns {
		scores[c.Name] = decreases[col]
	}
	return report.RankImportances(scores), nil
}

// permSeed derives a per-column, per-repetition seed so results do not
// depend on goroutine scheduling.
func permSeed(base int64, col, rep int) int64 {
	return base + int64(col)*1000003 + int64(rep)*7919
}
