package features_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnlab/domain/core"
	"churnlab/domain/customer"
	domfeat "churnlab/domain/features"
	"churnlab/internal/clean"
	featbuild "churnlab/internal/features"
	"churnlab/internal/testkit"
)

func cleanedRecords(t *testing.T, cfg testkit.Config) []customer.Record {
	t.Helper()
	raw, err := testkit.Generate(cfg)
	require.NoError(t, err)
	records, _, err := clean.New(clean.DefaultConfig()).Clean(raw)
	require.NoError(t, err)
	return records
}

func TestBuilder_Deterministic(t *testing.T) {
	records := cleanedRecords(t, testkit.Config{Rows: 300, Seed: 9})

	b1, err := featbuild.NewBuilder(records)
	require.NoError(t, err)
	b2, err := featbuild.NewBuilder(records)
	require.NoError(t, err)
	require.Equal(t, b1.Schema().Fingerprint(), b2.Schema().Fingerprint())

	set1, err := b1.Build(records)
	require.NoError(t, err)
	set2, err := b2.Build(records)
	require.NoError(t, err)

	require.True(t, reflect.DeepEqual(set1.Rows, set2.Rows), "encodings must be identical across builds")
	require.True(t, reflect.DeepEqual(set1.Labels, set2.Labels))
}

func TestBuilder_TenureGroupBins(t *testing.T) {
	cases := []struct {
		tenure float64
		code   int
	}{
		{0, 0}, {11, 0}, {12, 1}, {23, 1}, {24, 2},
		{47, 2}, {48, 3}, {59, 3}, {60, 4}, {72, 4}, {200, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, domfeat.TenureGroupCode(tc.tenure), "tenure %v", tc.tenure)
	}
}

func TestBuilder_SchemaIncludesTenureGroup(t *testing.T) {
	records := cleanedRecords(t, testkit.Config{Rows: 50, Seed: 2})

	b, err := featbuild.NewBuilder(records)
	require.NoError(t, err)

	idx, ok := b.Schema().Index(domfeat.TenureGroupColumn)
	require.True(t, ok)
	assert.Equal(t, domfeat.KindOrdinal, b.Schema().Columns[idx].Kind)
	// The derived ordinal rides last, after the raw columns it augments.
	assert.Equal(t, len(b.Schema().Columns)-1, idx)

	set, err := b.Build(records)
	require.NoError(t, err)
	tenureIdx, ok := set.Schema.Index("tenure")
	require.True(t, ok)
	for i, row := range set.Rows {
		assert.Equal(t, float64(domfeat.TenureGroupCode(row[tenureIdx])), row[idx], "row %d", i)
	}
}

func TestBuilder_CodeTablesAreSortedAndStable(t *testing.T) {
	records := cleanedRecords(t, testkit.Config{Rows: 200, Seed: 4})

	b, err := featbuild.NewBuilder(records)
	require.NoError(t, err)

	idx, ok := b.Schema().Index("Contract")
	require.True(t, ok)
	col := b.Schema().Columns[idx]
	assert.Equal(t, []string{"Month-to-month", "One year", "Two year"}, col.Levels)
	assert.Equal(t, 0, col.Code("Month-to-month"))
	assert.Equal(t, -1, col.Code("Decade"))
}

func TestBuilder_UnknownLevelIsSchemaMismatch(t *testing.T) {
	records := cleanedRecords(t, testkit.Config{Rows: 50, Seed: 6})

	b, err := featbuild.NewBuilder(records[:40])
	require.NoError(t, err)

	stranger := records[40]
	stranger.Categorical["Contract"] = "Lifetime"
	_, err = b.Build([]customer.Record{stranger})
	require.Error(t, err)
	assert.True(t, core.IsSchemaMismatchError(err), "got %v", err)
}

func TestBuilder_EmptyInput(t *testing.T) {
	_, err := featbuild.NewBuilder(nil)
	require.ErrorIs(t, err, core.ErrEmptyInput)
}
