package model

import "sort"

// Node is a regression tree node. Feature is -1 for a leaf.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     float64
}

func (n *Node) predict(x []float64) float64 {
	for n.Feature >= 0 && n.Left != nil && n.Right != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// presort returns, per feature, the sample indices ordered by that
// feature. Boosting reuses it for every tree since X never changes.
func presort(X [][]float64) [][]int {
	if len(X) == 0 {
		return nil
	}
	nFeatures := len(X[0])
	sorted := make([][]int, nFeatures)
	for f := 0; f < nFeatures; f++ {
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return X[idx[a]][f] < X[idx[b]][f] })
		sorted[f] = idx
	}
	return sorted
}

// treeBuilder grows one least-squares tree on the current residuals.
type treeBuilder struct {
	X              [][]float64
	target         []float64
	maxDepth       int
	minSamplesLeaf int
	gains          []float64
	goesLeft       []bool
}

// build splits the samples held in sorted (the same set in every feature
// order) on the feature and threshold with the lowest squared error.
func (b *treeBuilder) build(sorted [][]int, depth int) *Node {
	samples := sorted[0]
	n := len(samples)

	var sum, sumSq float64
	for _, i := range samples {
		sum += b.target[i]
		sumSq += b.target[i] * b.target[i]
	}
	leaf := &Node{Feature: -1, Value: sum / float64(n)}
	if depth >= b.maxDepth || n < 2*b.minSamplesLeaf {
		return leaf
	}

	parentSSE := sumSq - sum*sum/float64(n)
	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := parentSSE

	for f, order := range sorted {
		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			y := b.target[order[k]]
			leftSum += y
			leftSq += y * y

			nl := k + 1
			nr := n - nl
			if nl < b.minSamplesLeaf {
				continue
			}
			if nr < b.minSamplesLeaf {
				break
			}
			xv := b.X[order[k]][f]
			xn := b.X[order[k+1]][f]
			if xv == xn {
				continue
			}

			rightSum := sum - leftSum
			rightSq := sumSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (xv + xn) / 2
			}
		}
	}

	gain := parentSSE - bestSSE
	if bestFeature < 0 || gain <= 1e-12*(1+parentSSE) {
		return leaf
	}
	b.gains[bestFeature] += gain

	for _, i := range samples {
		b.goesLeft[i] = b.X[i][bestFeature] <= bestThreshold
	}
	left := make([][]int, len(sorted))
	right := make([][]int, len(sorted))
	for f, order := range sorted {
		l := make([]int, 0, n)
		r := make([]int, 0, n)
		for _, i := range order {
			if b.goesLeft[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		left[f], right[f] = l, r
	}

	return &Node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}
