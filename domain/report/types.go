package report

import (
	"sort"

	"churnlab/domain/model"
)

// ConfusionMatrix counts predictions against true labels at a fixed decision
// threshold. The "event" counted by TruePositive is churn: TruePositive is a
// correctly predicted churner, TrueNegative a correctly predicted
// non-churner.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Total returns the number of rows the matrix was built from.
func (c ConfusionMatrix) Total() int {
	return c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
}

// Evaluation is the immutable scoring result for one trained model against
// one held-out partition.
//
// PositiveClass records which label is treated as the reference ("positive")
// level for sensitivity, specificity, PPV and NPV. The pipeline fixes this
// to the non-churn class, matching the convention of the source analysis:
// with churn counted as the confusion-matrix event, sensitivity is
// TN/(TN+FP) and specificity is TP/(TP+FN). Swapping the convention swaps
// the two names without changing any count. AUC always treats churn as the
// positive class.
type Evaluation struct {
	Family        model.Family    `json:"family"`
	Threshold     float64         `json:"threshold"`
	PositiveClass string          `json:"positive_class"`
	Confusion     ConfusionMatrix `json:"confusion"`

	Accuracy         float64 `json:"accuracy"`
	Sensitivity      float64 `json:"sensitivity"`
	Specificity      float64 `json:"specificity"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
	PosPredValue     float64 `json:"pos_pred_value"`
	NegPredValue     float64 `json:"neg_pred_value"`
	Kappa            float64 `json:"kappa"`
	AUC              float64 `json:"auc"`
}

// Metrics returns the scalar metrics as a name-to-value map, ready for an
// external reporting or charting consumer.
func (e *Evaluation) Metrics() map[string]float64 {
	return map[string]float64{
		"accuracy":          e.Accuracy,
		"sensitivity":       e.Sensitivity,
		"specificity":       e.Specificity,
		"balanced_accuracy": e.BalancedAccuracy,
		"pos_pred_value":    e.PosPredValue,
		"neg_pred_value":    e.NegPredValue,
		"kappa":             e.Kappa,
		"auc":               e.AUC,
	}
}

// Importance is one (feature, score) pair of an importance ranking.
type Importance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// ImportanceRanking is an ordered sequence of feature importances,
// descending by score.
type ImportanceRanking []Importance

// RankImportances sorts scores descending into a ranking. Ties break on
// feature name so the ordering is deterministic.
func RankImportances(scores map[string]float64) ImportanceRanking {
	ranking := make(ImportanceRanking, 0, len(scores))
	for feature, score := range scores {
		ranking = append(ranking, Importance{Feature: feature, Score: score})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].Feature < ranking[j].Feature
	})
	return ranking
}

// Top returns the highest-ranked importance, or a zero value for an empty
// ranking.
func (r ImportanceRanking) Top() Importance {
	if len(r) == 0 {
		return Importance{}
	}
	return r[0]
}

// Score looks up the score of a feature in the ranking.
func (r ImportanceRanking) Score(feature string) (float64, bool) {
	for _, imp := range r {
		if imp.Feature == feature {
			return imp.Score, true
		}
	}
	return 0, false
}
