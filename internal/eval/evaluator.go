package eval

import (
	"sort"

	"churnlab/domain/core"
	"churnlab/domain/features"
	"churnlab/domain/model"
	"churnlab/domain/report"
)

// Options control the evaluation.
type Options struct {
	// Threshold is the probability cutoff for the binary prediction,
	// default 0.5. AUC ignores it and uses the full probability ranking.
	Threshold float64
}

// DefaultOptions returns the standard cutoff.
func DefaultOptions() Options {
	return Options{Threshold: 0.5}
}

// PositiveClass is the reference level used for sensitivity, specificity,
// PPV and NPV: the non-churn class, matching the source analysis. See
// report.Evaluation for the full convention.
const PositiveClass = "No"

// Evaluate scores a trained model against a held-out partition. The
// partition must carry the exact feature schema the model was fitted on;
// any mismatch fails fast rather than silently misaligning columns.
func Evaluate(m model.Classifier, set *features.Set, opts Options) (*report.Evaluation, error) {
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = 0.5
	}
	if err := m.Schema().Compatible(set.Schema); err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, core.ErrEmptyInput
	}

	probs, err := Probabilities(m, set)
	if err != nil {
		return nil, err
	}

	var cm report.ConfusionMatrix
	for i, p := range probs {
		predicted := p >= opts.Threshold
		actual := set.Labels[i]
		switch {
		case predicted && actual:
			cm.TruePositive++
		case predicted && !actual:
			cm.FalsePositive++
		case !predicted && !actual:
			cm.TrueNegative++
		default:
			cm.FalseNegative++
		}
	}

	n := float64(cm.Total())
	tp := float64(cm.TruePositive)
	fp := float64(cm.FalsePositive)
	tn := float64(cm.TrueNegative)
	fn := float64(cm.FalseNegative)

	// Non-churn is the reference class, so sensitivity is the non-churn
	// recall and specificity the churn recall.
	sensitivity := safeDiv(tn, tn+fp)
	specificity := safeDiv(tp, tp+fn)
	ppv := safeDiv(tn, tn+fn)
	npv := safeDiv(tp, tp+fp)

	// Chance-corrected agreement.
	po := (tp + tn) / n
	pe := ((tp+fp)*(tp+fn) + (fn+tn)*(fp+tn)) / (n * n)
	kappa := 0.0
	if pe < 1 {
		kappa = (po - pe) / (1 - pe)
	}

	return &report.Evaluation{
		Family:           m.Family(),
		Threshold:        opts.Threshold,
		PositiveClass:    PositiveClass,
		Confusion:        cm,
		Accuracy:         po,
		Sensitivity:      sensitivity,
		Specificity:      specificity,
		BalancedAccuracy: (sensitivity + specificity) / 2,
		PosPredValue:     ppv,
		NegPredValue:     npv,
		Kappa:            kappa,
		AUC:              AUC(probs, set.Labels),
	}, nil
}

// Probabilities scores every row of a set.
func Probabilities(m model.Classifier, set *features.Set) ([]float64, error) {
	probs := make([]float64, set.Len())
	for i, row := range set.Rows {
		p, err := m.PredictProba(row)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

// AUC is the probability that a randomly chosen churner is ranked above a
// randomly chosen non-churner by the score, computed with tie-averaged
// ranks (the Mann-Whitney formulation, equivalent to the trapezoidal area
// under the ROC curve).
func AUC(probs []float64, labels []bool) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return probs[order[i]] < probs[order[j]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && probs[order[j+1]] == probs[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var positives, rankSum float64
	for i, churned := range labels {
		if churned {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
