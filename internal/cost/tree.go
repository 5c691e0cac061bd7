package cost

import (
	"sort"
)

const featureCount = 6

type sample struct {
	x [featureCount]float64
	y float64
}

// node is a regression tree node. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	value     float64
	left      *node
	right     *node
}

type tree struct {
	root *node
}

func (t *tree) predict(x [featureCount]float64) float64 {
	n := t.root
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeParams struct {
	maxDepth int
	minSplit int
}

func growTree(samples []sample, p treeParams) *tree {
	return &tree{root: grow(samples, p, 0)}
}

func grow(samples []sample, p treeParams, depth int) *node {
	mean := meanY(samples)
	if depth >= p.maxDepth || len(samples) < p.minSplit {
		return &node{feature: -1, value: mean}
	}

	feature, threshold, ok := bestSplit(samples)
	if !ok {
		return &node{feature: -1, value: mean}
	}

	left, right := partition(samples, feature, threshold)
	return &node{
		feature:   feature,
		threshold: threshold,
		value:     mean,
		left:      grow(left, p, depth+1),
		right:     grow(right, p, depth+1),
	}
}

// bestSplit picks the feature and threshold that minimize the summed squared
// error of both children. Thresholds sit halfway between distinct values.
func bestSplit(samples []sample) (int, float64, bool) {
	n := len(samples)
	total, totalSq := 0.0, 0.0
	for _, s := range samples {
		total += s.y
		totalSq += s.y * s.y
	}
	parentSSE := totalSq - total*total/float64(n)

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE

	sorted := make([]sample, n)
	for f := 0; f < featureCount; f++ {
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].x[f] < sorted[j].x[f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			y := sorted[i].y
			leftSum += y
			leftSq += y * y
			if sorted[i].x[f] == sorted[i+1].x[f] {
				continue
			}
			nl := float64(i + 1)
			nr := float64(n - i - 1)
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (sorted[i].x[f] + sorted[i+1].x[f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func partition(samples []sample, feature int, threshold float64) ([]sample, []sample) {
	var left, right []sample
	for _, s := range samples {
		if s.x[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

func meanY(samples []sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.y
	}
	return sum / float64(len(samples))
}
