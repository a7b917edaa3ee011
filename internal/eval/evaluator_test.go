package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnlab/domain/core"
	"churnlab/domain/features"
	"churnlab/domain/model"
	"churnlab/internal/eval"
)

// scoreColumn is a stub classifier whose churn probability is the first
// column of the row, so test fixtures can dial in exact confusion counts.
type scoreColumn struct {
	schema features.Schema
}

func (s scoreColumn) Family() model.Family    { return model.FamilyLogistic }
func (s scoreColumn) Schema() features.Schema { return s.schema }
func (s scoreColumn) PredictProba(row []float64) (float64, error) {
	if len(row) != len(s.schema.Columns) {
		return 0, core.NewSchemaMismatchError("row width")
	}
	return row[0], nil
}

// constant ignores its input entirely.
type constant struct {
	schema features.Schema
	p      float64
}

func (c constant) Family() model.Family    { return model.FamilyForest }
func (c constant) Schema() features.Schema { return c.schema }
func (c constant) PredictProba(row []float64) (float64, error) {
	return c.p, nil
}

func probSchema() features.Schema {
	return features.Schema{Columns: []features.Column{{Name: "score", Kind: features.KindNumeric}}}
}

func probSet(probs []float64, labels []bool) *features.Set {
	rows := make([][]float64, len(probs))
	for i, p := range probs {
		rows[i] = []float64{p}
	}
	return &features.Set{Schema: probSchema(), Rows: rows, Labels: labels}
}

func TestEvaluate_ConfusionAndDerivedMetrics(t *testing.T) {
	set := probSet(
		[]float64{0.9, 0.8, 0.2, 0.1, 0.3},
		[]bool{true, false, false, true, false},
	)
	rep, err := eval.Evaluate(scoreColumn{schema: probSchema()}, set, eval.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Confusion.TruePositive)
	assert.Equal(t, 1, rep.Confusion.FalsePositive)
	assert.Equal(t, 2, rep.Confusion.TrueNegative)
	assert.Equal(t, 1, rep.Confusion.FalseNegative)
	assert.Equal(t, set.Len(), rep.Confusion.Total(), "TP+FP+TN+FN must equal the partition size")

	assert.InDelta(t, 0.6, rep.Accuracy, 1e-12)
	// Non-churn is the reference class.
	assert.Equal(t, "No", rep.PositiveClass)
	assert.InDelta(t, 2.0/3.0, rep.Sensitivity, 1e-12)
	assert.InDelta(t, 0.5, rep.Specificity, 1e-12)
	assert.InDelta(t, (2.0/3.0+0.5)/2, rep.BalancedAccuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, rep.PosPredValue, 1e-12)
	assert.InDelta(t, 0.5, rep.NegPredValue, 1e-12)
	assert.InDelta(t, (0.6-0.52)/(1-0.52), rep.Kappa, 1e-12)
	assert.InDelta(t, 0.5, rep.AUC, 1e-12)
}

func TestEvaluate_SchemaMismatchFailsFast(t *testing.T) {
	wider := features.Schema{Columns: []features.Column{
		{Name: "score", Kind: features.KindNumeric},
		{Name: "extra", Kind: features.KindNumeric},
	}}
	set := probSet([]float64{0.1, 0.9}, []bool{false, true})

	_, err := eval.Evaluate(scoreColumn{schema: wider}, set, eval.DefaultOptions())
	require.Error(t, err)
	assert.True(t, core.IsSchemaMismatchError(err), "got %v", err)
}

func TestAUC_Bounds(t *testing.T) {
	perfect := eval.AUC([]float64{0.1, 0.2, 0.8, 0.9}, []bool{false, false, true, true})
	assert.InDelta(t, 1.0, perfect, 1e-12)

	inverted := eval.AUC([]float64{0.9, 0.8, 0.2, 0.1}, []bool{false, false, true, true})
	assert.InDelta(t, 0.0, inverted, 1e-12)
}

func TestAUC_NoSignalClassifierScoresHalf(t *testing.T) {
	labels := make([]bool, 200)
	for i := range labels {
		labels[i] = i%2 == 0
	}
	set := probSet(make([]float64, 200), labels)

	rep, err := eval.Evaluate(constant{schema: probSchema(), p: 0.4}, set, eval.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rep.AUC, 1e-12, "label-independent scores must give AUC 0.5")
	assert.GreaterOrEqual(t, rep.AUC, 0.0)
	assert.LessOrEqual(t, rep.AUC, 1.0)
}

func TestEvaluate_EmptyPartition(t *testing.T) {
	set := &features.Set{Schema: probSchema()}
	_, err := eval.Evaluate(scoreColumn{schema: probSchema()}, set, eval.DefaultOptions())
	require.ErrorIs(t, err, core.ErrEmptyInput)
}
