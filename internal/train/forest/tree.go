package forest

import (
	"math/rand"
	"sort"
)

// node is one splitting decision of the form "row[feature] < threshold ?".
// Trees are stored as a flat node list with child indexes; leaves carry the
// churn fraction of the training rows that reached them.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	leaf      bool
	prob      float64
}

// tree is a fitted classification tree over a feature-set row layout.
type tree struct {
	nodes []node
}

// predictProba drops a row down the tree and returns the leaf churn fraction.
func (t *tree) predictProba(row []float64) float64 {
	cur := 0
	for {
		n := t.nodes[cur]
		if n.leaf {
			return n.prob
		}
		if row[n.feature] < n.threshold {
			cur = n.left
		} else {
			cur = n.right
		}
	}
}

// votesChurn is the tree's majority vote.
func (t *tree) votesChurn(row []float64) bool {
	return t.predictProba(row) >= 0.5
}

// valueLabel pairs one feature value with its row label during split search.
type valueLabel struct {
	value   float64
	churned bool
}

// grower builds a single tree from a bootstrap sample.
type grower struct {
	rows     [][]float64
	labels   []bool
	rng      *rand.Rand
	mtry     int
	maxDepth int
	minLeaf  int
	nSample  int

	nodes []node
	// importance accumulates sample-weighted Gini decrease per schema column.
	importance []float64
	scratch    []valueLabel
}

// grow recursively fits the subtree over the given row indices and returns
// the index of its root node.
func (g *grower) grow(indices []int, depth int) int {
	pos := 0
	for _, idx := range indices {
		if g.labels[idx] {
			pos++
		}
	}
	prob := float64(pos) / float64(len(indices))

	if pos == 0 || pos == len(indices) || depth >= g.maxDepth || len(indices) < 2*g.minLeaf {
		return g.appendLeaf(prob)
	}

	feature, threshold, decrease, ok := g.bestSplit(indices, pos)
	if !ok {
		return g.appendLeaf(prob)
	}

	var left, right []int
	for _, idx := range indices {
		if g.rows[idx][feature] < threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < g.minLeaf || len(right) < g.minLeaf {
		return g.appendLeaf(prob)
	}

	g.importance[feature] += float64(len(indices)) / float64(g.nSample) * decrease

	self := len(g.nodes)
	g.nodes = append(g.nodes, node{feature: feature, threshold: threshold})
	leftIdx := g.grow(left, depth+1)
	rightIdx := g.grow(right, depth+1)
	g.nodes[self].left = leftIdx
	g.nodes[self].right = rightIdx
	return self
}

func (g *grower) appendLeaf(prob float64) int {
	g.nodes = append(g.nodes, node{leaf: true, prob: prob})
	return len(g.nodes) - 1
}

// bestSplit searches a random feature subset for the threshold with the
// largest Gini impurity decrease.
func (g *grower) bestSplit(indices []int, pos int) (feature int, threshold float64, decrease float64, ok bool) {
	n := len(indices)
	parentGini := gini(pos, n)
	bestDecrease := 0.0

	pairs := g.scratch[:n]
	for _, f := range g.sampleFeatures() {
		for i, idx := range indices {
			pairs[i] = valueLabel{value: g.rows[idx][f], churned: g.labels[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		leftN, leftPos := 0, 0
		for i := 0; i < n-1; i++ {
			leftN++
			if pairs[i].churned {
				leftPos++
			}
			if pairs[i].value == pairs[i+1].value {
				continue
			}
			rightN := n - leftN
			rightPos := pos - leftPos
			weighted := float64(leftN)/float64(n)*gini(leftPos, leftN) +
				float64(rightN)/float64(n)*gini(rightPos, rightN)
			d := parentGini - weighted
			if d > bestDecrease {
				bestDecrease = d
				feature = f
				threshold = (pairs[i].value + pairs[i+1].value) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestDecrease, ok
}

// sampleFeatures draws mtry distinct feature indexes.
func (g *grower) sampleFeatures() []int {
	return g.rng.Perm(len(g.importance))[:g.mtry]
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
