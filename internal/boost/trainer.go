package boost

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Trainer fits a boosted ensemble of regression trees to the binary
// logistic objective using exact greedy split search.
type Trainer struct {
	params Params
	obj    binaryObjective
	rng    *rand.Rand

	x       *mat.Dense
	targets []float64

	gradients []float64
	hessians  []float64
	rawScores []float64

	initScore float64
	trees     []Tree

	// leaf budget for the tree currently being built
	leavesInTree int

	logger log.Logger
}

// splitInfo describes the best split found for a node.
type splitInfo struct {
	feature    int
	threshold  float64
	gain       float64
	leftCount  int
	rightCount int
}

// NewTrainer creates a trainer. Params are defaulted and must validate.
func NewTrainer(params Params) *Trainer {
	params = params.ApplyDefaults()
	return &Trainer{
		params: params,
		rng:    rand.New(rand.NewPCG(uint64(params.Seed), uint64(params.Seed)+1)),
		logger: log.GetLoggerWithName("boost.trainer"),
	}
}

// Fit trains the ensemble on X (samples × features) and y (samples × 1,
// labels 0 or 1).
func (t *Trainer) Fit(X, y mat.Matrix) error {
	if err := t.params.Validate(); err != nil {
		return err
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Trainer.Fit")
	}
	if yRows != rows {
		return errors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Trainer.Fit", 1, yCols, 1)
	}

	t.x = mat.DenseCopyOf(X)
	t.targets = make([]float64, rows)
	for i := 0; i < rows; i++ {
		t.targets[i] = y.At(i, 0)
	}

	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)
	t.initScore = t.obj.InitScore(t.targets)
	t.rawScores = make([]float64, rows)
	for i := range t.rawScores {
		t.rawScores[i] = t.initScore
	}
	t.trees = t.trees[:0]

	for iter := 0; iter < t.params.NumIterations; iter++ {
		t.computeGradients()

		tree := t.buildTree(iter)
		t.trees = append(t.trees, tree)
		t.updateRawScores(&tree)

		if iter%25 == 0 {
			t.logger.Debug("boosting progress",
				"iteration", iter,
				"loss", t.currentLoss())
		}
	}

	return nil
}

// Model returns the fitted ensemble.
func (t *Trainer) Model() *Model {
	_, cols := t.x.Dims()
	return &Model{
		NumFeatures:   cols,
		NumIterations: len(t.trees),
		LearningRate:  t.params.LearningRate,
		NumLeaves:     t.params.NumLeaves,
		MaxDepth:      t.params.MaxDepth,
		InitScore:     t.initScore,
		Trees:         t.trees,
		Params:        t.params,
	}
}

func (t *Trainer) computeGradients() {
	for i := range t.targets {
		t.gradients[i] = t.obj.Gradient(t.rawScores[i], t.targets[i])
		t.hessians[i] = t.obj.Hessian(t.rawScores[i], t.targets[i])
	}
}

func (t *Trainer) currentLoss() float64 {
	loss := 0.0
	for i := range t.targets {
		loss += t.obj.Loss(t.rawScores[i], t.targets[i])
	}
	return loss / float64(len(t.targets))
}

// bagIndices samples rows without replacement per the bagging fraction.
func (t *Trainer) bagIndices(rows int) []int {
	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	if t.params.BaggingFraction >= 1.0 {
		return indices
	}
	t.rng.Shuffle(rows, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	n := int(math.Round(t.params.BaggingFraction * float64(rows)))
	if n < 1 {
		n = 1
	}
	return indices[:n]
}

// candidateFeatures samples columns per the feature fraction.
func (t *Trainer) candidateFeatures(cols int) []int {
	features := make([]int, cols)
	for j := range features {
		features[j] = j
	}
	if t.params.FeatureFraction >= 1.0 {
		return features
	}
	t.rng.Shuffle(cols, func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	n := int(math.Round(t.params.FeatureFraction * float64(cols)))
	if n < 1 {
		n = 1
	}
	picked := features[:n]
	sort.Ints(picked)
	return picked
}

func (t *Trainer) buildTree(iteration int) Tree {
	rows, cols := t.x.Dims()

	tree := Tree{
		TreeIndex:     iteration,
		ShrinkageRate: t.params.LearningRate,
	}
	t.leavesInTree = 0

	indices := t.bagIndices(rows)
	features := t.candidateFeatures(cols)

	t.buildNode(&tree, indices, features, -1, 0)
	tree.NumLeaves = tree.countLeaves()
	return tree
}

func (t *Trainer) buildNode(tree *Tree, indices, features []int, parentID, depth int) int {
	nodeID := len(tree.Nodes)

	atDepthLimit := t.params.MaxDepth > 0 && depth >= t.params.MaxDepth
	atLeafLimit := t.leavesInTree >= t.params.NumLeaves-1
	tooSmall := len(indices) < 2*t.params.MinChildSamples

	if atDepthLimit || atLeafLimit || tooSmall {
		return t.appendLeaf(tree, indices, parentID)
	}

	best := t.findBestSplit(indices, features)
	if best.gain < t.params.MinGainToSplit {
		return t.appendLeaf(tree, indices, parentID)
	}

	tree.Nodes = append(tree.Nodes, Node{
		NodeID:       nodeID,
		ParentID:     parentID,
		LeftChild:    -1,
		RightChild:   -1,
		SplitFeature: best.feature,
		Threshold:    best.threshold,
		Gain:         best.gain,
	})

	left := make([]int, 0, best.leftCount)
	right := make([]int, 0, best.rightCount)
	for _, idx := range indices {
		if t.x.At(idx, best.feature) <= best.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	leftChild := t.buildNode(tree, left, features, nodeID, depth+1)
	rightChild := t.buildNode(tree, right, features, nodeID, depth+1)
	tree.Nodes[nodeID].LeftChild = leftChild
	tree.Nodes[nodeID].RightChild = rightChild
	return nodeID
}

func (t *Trainer) appendLeaf(tree *Tree, indices []int, parentID int) int {
	nodeID := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{
		NodeID:     nodeID,
		ParentID:   parentID,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  t.leafValue(indices),
		LeafCount:  len(indices),
	})
	t.leavesInTree++
	return nodeID
}

// leafValue is the Newton step for the node: -G/(H+lambda).
func (t *Trainer) leafValue(indices []int) float64 {
	sumGrad := 0.0
	sumHess := 0.0
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}
	const eps = 1e-10
	return -sumGrad / (sumHess + t.params.Lambda + eps)
}

func (t *Trainer) findBestSplit(indices, features []int) splitInfo {
	best := splitInfo{gain: math.Inf(-1)}
	for _, feature := range features {
		if s := t.findBestSplitForFeature(indices, feature); s.gain > best.gain {
			best = s
		}
	}
	return best
}

func (t *Trainer) findBestSplitForFeature(indices []int, feature int) splitInfo {
	type valueIdx struct {
		value float64
		idx   int
	}
	values := make([]valueIdx, len(indices))
	for i, idx := range indices {
		values[i] = valueIdx{value: t.x.At(idx, feature), idx: idx}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].value < values[j].value })

	totalGrad := 0.0
	totalHess := 0.0
	for _, idx := range indices {
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}

	best := splitInfo{feature: feature, gain: math.Inf(-1)}
	leftGrad, leftHess := 0.0, 0.0
	leftCount := 0

	for i := 0; i < len(values)-1; i++ {
		leftGrad += t.gradients[values[i].idx]
		leftHess += t.hessians[values[i].idx]
		leftCount++

		if values[i].value == values[i+1].value {
			continue
		}

		rightCount := len(indices) - leftCount
		if leftCount < t.params.MinChildSamples || rightCount < t.params.MinChildSamples {
			continue
		}

		gain := t.splitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
		if gain > best.gain {
			best.gain = gain
			best.threshold = (values[i].value + values[i+1].value) / 2
			best.leftCount = leftCount
			best.rightCount = rightCount
		}
	}
	return best
}

// splitGain is the reduction in regularized loss from a split.
func (t *Trainer) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.Lambda
	leftScore := leftGrad * leftGrad / (leftHess + lambda)
	rightScore := rightGrad * rightGrad / (rightHess + lambda)
	totalScore := totalGrad * totalGrad / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}

// updateRawScores adds the new tree's contribution for every row, bagged
// or not, so the next iteration's gradients see the full ensemble.
func (t *Trainer) updateRawScores(tree *Tree) {
	rows, _ := t.x.Dims()
	features := make([]float64, t.x.RawMatrix().Cols)
	for i := 0; i < rows; i++ {
		mat.Row(features, i, t.x)
		t.rawScores[i] += tree.Predict(features)
	}
}
