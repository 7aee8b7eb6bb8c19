package forecast

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
)

// regressionTree is a CART tree grown to purity on squared error. Nodes are
// stored flat; a leaf has feature -1.
type regressionTree struct {
	nodes []treeNode
}

type treeNode struct {
	feature     int
	threshold   float64
	left, right int
	value       float64
}

type treeParams struct {
	minSplit int // smallest node that may be split
	maxDepth int // 0: unlimited
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// growTree fits a tree on the rows of x selected by idx. Rows may repeat.
func growTree(x [][]float64, y []float64, idx []int, p treeParams) *regressionTree {
	t := &regressionTree{}
	t.grow(x, y, idx, p, 0)
	return t
}

func (t *regressionTree) grow(x [][]float64, y []float64, idx []int, p treeParams, depth int) int {
	node := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{feature: -1, value: mean(y, idx)})

	if len(idx) < p.minSplit || (p.maxDepth > 0 && depth >= p.maxDepth) {
		return node
	}
	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, r := range idx {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := t.grow(x, y, left, p, depth+1)
	r := t.grow(x, y, right, p, depth+1)
	t.nodes[node].feature = feature
	t.nodes[node].threshold = threshold
	t.nodes[node].left = l
	t.nodes[node].right = r
	return node
}

func mean(y []float64, idx []int) float64 {
	sum := 0.0
	for _, r := range idx {
		sum += y[r]
	}
	return sum / float64(len(idx))
}

// bestSplit scans every feature for the threshold that most reduces the
// summed squared error. Thresholds sit halfway between distinct values.
func bestSplit(x [][]float64, y []float64, idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	total, totalSq := 0.0, 0.0
	for _, r := range idx {
		total += y[r]
		totalSq += y[r] * y[r]
	}
	bestSSE := totalSq - total*total/float64(n)
	if bestSSE <= 1e-12 {
		return 0, 0, false
	}

	order := make([]int, n)
	for f := range x[idx[0]] {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			v := y[order[i]]
			leftSum += v
			leftSq += v * v
			lo, hi := x[order[i]][f], x[order[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(i+1), float64(n-i-1)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := leftSq - leftSum*leftSum/nl + rightSq - rightSum*rightSum/nr
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				feature, threshold, ok = f, lo+(hi-lo)/2, true
			}
		}
	}
	return feature, threshold, ok
}

// randomForest averages bootstrap-trained regression trees.
type randomForest struct {
	trees []*regressionTree
}

// fitForest grows n trees concurrently. Tree i draws its bootstrap sample
// from a generator seeded with (seed, i), so the forest does not depend on
// scheduling. A panic while growing a tree is returned as an error.
func fitForest(x [][]float64, y []float64, n int, seed uint64, p treeParams) (*randomForest, error) {
	f := &randomForest{trees: make([]*regressionTree, n)}
	var g errgroup.Group
	g.SetLimit(8)
	for i := 0; i < n; i++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("tree %d: panic: %v", i, r)
				}
			}()
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			idx := make([]int, len(y))
			for j := range idx {
				idx[j] = rng.IntN(len(y))
			}
			f.trees[i] = growTree(x, y, idx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *randomForest) predict(x []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}
