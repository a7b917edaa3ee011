package split

import (
	"fmt"
	"math"
	"math/rand"

	"churnlab/domain/core"
	"churnlab/domain/features"
)

// Split is a disjoint {train, test} partition of a feature set.
type Split struct {
	Train *features.Set
	Test  *features.Set

	Seed          int64
	TrainFraction float64
}

// Stratified partitions a feature set by a label-stratified random
// assignment: within each class, approximately fraction of the rows go to
// train and the remainder to test, preserving the overall class balance in
// both partitions. Deterministic given the same seed and input ordering.
func Stratified(set *features.Set, fraction float64, seed int64) (*Split, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, fmt.Errorf("train fraction must be in (0, 1), got %g", fraction)
	}
	negatives, positives := set.ClassCounts()
	if negatives < 2 || positives < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows per class to stratify, got %d negative / %d positive",
			core.ErrInsufficientData, negatives, positives)
	}

	var classIndex [2][]int
	for i, churned := range set.Labels {
		if churned {
			classIndex[1] = append(classIndex[1], i)
		} else {
			classIndex[0] = append(classIndex[0], i)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, indices := range classIndex {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		n := int(math.Round(fraction * float64(len(indices))))
		// Both partitions keep at least one member of each class.
		if n < 1 {
			n = 1
		}
		if n > len(indices)-1 {
			n = len(indices) - 1
		}
		trainIdx = append(trainIdx, indices[:n]...)
		testIdx = append(testIdx, indices[n:]...)
	}

	return &Split{
		Train:         subset(set, trainIdx),
		Test:          subset(set, testIdx),
		Seed:          seed,
		TrainFraction: fraction,
	}, nil
}

// subset copies the selected rows into a new feature set sharing the schema.
func subset(set *features.Set, indices []int) *features.Set {
	sub := &features.Set{
		Schema: set.Schema,
		Rows:   make([][]float64, len(indices)),
		Labels: make([]bool, len(indices)),
	}
	for i, idx := range indices {
		row := make([]float64, len(set.Rows[idx]))
		copy(row, set.Rows[idx])
		sub.Rows[i] = row
		sub.Labels[i] = set.Labels[idx]
	}
	return sub
}
