package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"churnlab/domain/core"
	"churnlab/domain/features"
	"churnlab/domain/model"
	"churnlab/domain/report"
)

// Options control the ensemble fit.
type Options struct {
	Trees    int   // number of bootstrap trees, default 500
	MaxDepth int   // depth cap per tree, default 25
	MinLeaf  int   // minimum rows per leaf, default 1
	Mtry     int   // features considered per split, default floor(sqrt(p))
	Workers  int   // parallel tree fits, default GOMAXPROCS
	Seed     int64 // base seed; per-tree rngs derive from it
}

// DefaultOptions returns the standard forest controls.
func DefaultOptions() Options {
	return Options{Trees: 500, MaxDepth: 25, MinLeaf: 1}
}

// Model is a fitted random forest classifier. Aggregate prediction is the
// majority vote across trees; aggregate probability is the fraction of trees
// voting churn.
type Model struct {
	schema     features.Schema
	trees      []tree
	importance []float64 // normalized mean Gini decrease per schema column
	seed       int64
}

// Fit trains the ensemble. Trees fit independently on bootstrap resamples
// and are embarrassingly parallel; each tree's rng derives deterministically
// from the base seed and tree index, so the fitted forest is identical
// regardless of worker scheduling.
func Fit(ctx context.Context, set *features.Set, opts Options) (*Model, error) {
	if opts.Trees <= 0 {
		opts.Trees = 500
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 25
	}
	if opts.MinLeaf <= 0 {
		opts.MinLeaf = 1
	}
	if set.Len() == 0 {
		return nil, core.NewFitError(string(model.FamilyForest), core.ErrEmptyInput)
	}
	negatives, positives := set.ClassCounts()
	if negatives == 0 {
		return nil, core.NewFitError(string(model.FamilyForest), core.NewSingleClassError("churned"))
	}
	if positives == 0 {
		return nil, core.NewFitError(string(model.FamilyForest), core.NewSingleClassError("not churned"))
	}

	p := len(set.Schema.Columns)
	mtry := opts.Mtry
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(p)))
	}
	if mtry < 1 {
		mtry = 1
	}
	if mtry > p {
		mtry = p
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := set.Len()
	trees := make([]tree, opts.Trees)
	importances := make([][]float64, opts.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(treeSeed(opts.Seed, i)))
			gr := &grower{
				rows:       set.Rows,
				labels:     set.Labels,
				rng:        rng,
				mtry:       mtry,
				maxDepth:   opts.MaxDepth,
				minLeaf:    opts.MinLeaf,
				nSample:    n,
				importance: make([]float64, p),
				scratch:    make([]valueLabel, n),
			}
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.Intn(n)
			}
			gr.grow(sample, 0)
			trees[i] = tree{nodes: gr.nodes}
			importances[i] = gr.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, core.NewFitError(string(model.FamilyForest), err)
	}

	// Reduce importances in tree-index order so the result does not depend
	// on completion order.
	total := make([]float64, p)
	for _, imp := range importances {
		for j, v := range imp {
			total[j] += v
		}
	}
	var sum float64
	for j := range total {
		total[j] /= float64(opts.Trees)
		sum += total[j]
	}
	if sum > 0 {
		for j := range total {
			total[j] /= sum
		}
	}

	return &Model{
		schema:     set.Schema,
		trees:      trees,
		importance: total,
		seed:       opts.Seed,
	}, nil
}

// Family returns the model family tag.
func (m *Model) Family() model.Family {
	return model.FamilyForest
}

// Schema returns the feature schema the model was fitted on.
func (m *Model) Schema() features.Schema {
	return m.schema
}

// PredictProba returns the fraction of trees voting churn for one row.
func (m *Model) PredictProba(row []float64) (float64, error) {
	if len(row) != len(m.schema.Columns) {
		return 0, core.NewSchemaMismatchError(fmt.Sprintf(
			"row has %d columns, model was fitted on %d", len(row), len(m.schema.Columns)))
	}
	votes := 0
	for i := range m.trees {
		if m.trees[i].votesChurn(row) {
			votes++
		}
	}
	return float64(votes) / float64(len(m.trees)), nil
}

// Trees returns the ensemble size.
func (m *Model) Trees() int {
	return len(m.trees)
}

// ImpurityImportance returns the normalized mean Gini-decrease importance
// per feature. This is the ensemble's fit-time byproduct, distinct from the
// model-agnostic permutation importance computed post hoc.
func (m *Model) ImpurityImportance() report.ImportanceRanking {
	scores := make(map[string]float64, len(m.importance))
	for j, col := range m.schema.Columns {
		scores[col.Name] = m.importance[j]
	}
	return report.RankImportances(scores)
}

// treeSeed derives a per-tree seed. The odd multiplier keeps adjacent tree
// streams decorrelated.
func treeSeed(base int64, idx int) int64 {
	return base + int64(idx)*2654435761
}
