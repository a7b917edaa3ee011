package forest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnlab/domain/core"
	"churnlab/domain/model"
	"churnlab/internal/testkit"
	"churnlab/internal/train/forest"
)

func testOptions() forest.Options {
	opts := forest.DefaultOptions()
	opts.Trees = 100 // enough for stable votes, fast enough for CI
	opts.Seed = 42
	return opts
}

func TestFit_LearnsContractRule(t *testing.T) {
	set, _, err := testkit.FeatureSet(testkit.Config{Rows: 600, Seed: 31})
	require.NoError(t, err)

	m, err := forest.Fit(context.Background(), set, testOptions())
	require.NoError(t, err)
	assert.Equal(t, model.FamilyForest, m.Family())
	assert.Equal(t, 100, m.Trees())

	correct := 0
	for i, row := range set.Rows {
		p, err := m.PredictProba(row)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if (p >= 0.5) == set.Labels[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(set.Len())
	assert.Greater(t, accuracy, 0.95, "got accuracy %.4f", accuracy)
}

func TestFit_DeterministicForSeed(t *testing.T) {
	set, _, err := testkit.FeatureSet(testkit.Config{Rows: 300, Seed: 19})
	require.NoError(t, err)

	opts := testOptions()
	opts.Trees = 25
	opts.Workers = 4
	a, err := forest.Fit(context.Background(), set, opts)
	require.NoError(t, err)
	opts.Workers = 1
	b, err := forest.Fit(context.Background(), set, opts)
	require.NoError(t, err)

	// Same seed must give identical predictions regardless of worker count.
	for _, row := range set.Rows {
		pa, err := a.PredictProba(row)
		require.NoError(t, err)
		pb, err := b.PredictProba(row)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestFit_ImpurityImportanceRanksContractFirst(t *testing.T) {
	set, _, err := testkit.FeatureSet(testkit.Config{Rows: 800, Seed: 47, NoiseColumn: true})
	require.NoError(t, err)

	m, err := forest.Fit(context.Background(), set, testOptions())
	require.NoError(t, err)

	ranking := m.ImpurityImportance()
	require.NotEmpty(t, ranking)
	assert.Equal(t, "Contract", ranking.Top().Feature)

	contractScore, _ := ranking.Score("Contract")
	noiseScore, _ := ranking.Score("noise_band")
	assert.Greater(t, contractScore, noiseScore)

	var sum float64
	for _, imp := range ranking {
		sum += imp.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "impurity importances are normalized")
}

func TestFit_SingleClassTarget(t *testing.T) {
	set, _, err := testkit.FeatureSet(testkit.Config{Rows: 100, Seed: 3})
	require.NoError(t, err)
	for i := range set.Labels {
		set.Labels[i] = true
	}

	_, err = forest.Fit(context.Background(), set, testOptions())
	require.Error(t, err)
	assert.True(t, core.IsFitError(err))
	assert.ErrorIs(t, err, core.ErrSingleClass)
}
