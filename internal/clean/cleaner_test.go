package clean_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnlab/domain/core"
	"churnlab/domain/customer"
	"churnlab/internal/clean"
	"churnlab/internal/testkit"
)

func TestClean_ExcludesBlankTotalCharges(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 50, Seed: 7, BlankTotalCharges: 3})
	require.NoError(t, err)

	records, report, err := clean.New(clean.DefaultConfig()).Clean(raw)
	require.NoError(t, err)

	assert.Equal(t, 50, report.Input)
	assert.Equal(t, 47, report.Retained)
	assert.Equal(t, 3, report.Excluded)
	assert.Equal(t, 3, report.Reasons[customer.ReasonUnparseableNumeric])
	assert.Len(t, records, 47)
}

func TestClean_StripsIdentifier(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 10, Seed: 1})
	require.NoError(t, err)

	records, _, err := clean.New(clean.DefaultConfig()).Clean(raw)
	require.NoError(t, err)

	for _, rec := range records {
		_, hasID := rec.Categorical["customerID"]
		assert.False(t, hasID, "identifier must be stripped before modeling")
	}
}

func TestClean_RetainedRecordsHaveNoMissingValues(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 100, Seed: 3})
	require.NoError(t, err)
	raw[10]["Partner"] = "  " // becomes missing after trim
	delete(raw[20], "tenure")

	records, report, err := clean.New(clean.DefaultConfig()).Clean(raw)
	require.NoError(t, err)

	assert.Equal(t, 98, report.Retained)
	assert.Equal(t, 2, report.Excluded)
	for _, rec := range records {
		for name, val := range rec.Categorical {
			assert.NotEmpty(t, val, "categorical %s", name)
		}
		for _, name := range []string{"tenure", "MonthlyCharges", "TotalCharges"} {
			_, ok := rec.Numeric[name]
			assert.True(t, ok, "numeric %s must be present", name)
		}
	}
}

func TestClean_EmptyInputIsHardError(t *testing.T) {
	_, _, err := clean.New(clean.DefaultConfig()).Clean(nil)
	require.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestClean_Idempotent(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 200, Seed: 11, BlankTotalCharges: 5})
	require.NoError(t, err)

	cleaner := clean.New(clean.DefaultConfig())
	first, _, err := cleaner.Clean(raw)
	require.NoError(t, err)

	// Round-trip the cleaned records through raw form and clean again.
	roundTrip := make([]customer.RawRecord, len(first))
	for i, rec := range first {
		roundTrip[i] = rec.AsRaw("Churn", "Yes", "No")
	}
	second, report, err := cleaner.Clean(roundTrip)
	require.NoError(t, err)

	assert.Equal(t, len(first), report.Retained)
	assert.Zero(t, report.Excluded)
	require.True(t, reflect.DeepEqual(first, second), "cleaning cleaned records must be a no-op")
}

func TestClean_NumericProfilesCoverRetainedRows(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 100, Seed: 5})
	require.NoError(t, err)

	_, report, err := clean.New(clean.DefaultConfig()).Clean(raw)
	require.NoError(t, err)

	profile, ok := report.NumericProfiles["MonthlyCharges"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, profile.Min, 20.0)
	assert.LessOrEqual(t, profile.Max, 120.0)
	assert.Greater(t, profile.StdDev, 0.0)
}
