package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := Config{Rows: 50, Seed: 7, NoiseColumn: true}
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_ContractRuleBindsTarget(t *testing.T) {
	rows, err := Generate(Config{Rows: 200, Seed: 3, Rule: RuleContract})
	require.NoError(t, err)
	require.Len(t, rows, 200)
	for _, row := range rows {
		want := "No"
		if row["Contract"] == "Month-to-month" {
			want = "Yes"
		}
		assert.Equal(t, want, row["Churn"])
	}
}

func TestGenerate_BlankTotalCharges(t *testing.T) {
	rows, err := Generate(Config{Rows: 20, Seed: 1, BlankTotalCharges: 4})
	require.NoError(t, err)
	for i, row := range rows {
		if i < 4 {
			assert.Equal(t, " ", row["TotalCharges"], "row %d", i)
		} else {
			assert.NotEqual(t, " ", row["TotalCharges"], "row %d", i)
		}
	}
}

func TestGenerate_Rejects(t *testing.T) {
	_, err := Generate(Config{Rows: 0})
	assert.Error(t, err)

	_, err = Generate(Config{Rows: 10, Rule: Rule("bogus")})
	assert.Error(t, err)
}
