package boost

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Fold is one train/validation split of cross-validation.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold splits samples into k folds preserving the class balance
// of the label vector in every fold.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewStratifiedKFold creates a splitter; fewer than 2 splits falls back to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split produces the folds for X and labels y.
func (s *StratifiedKFold) Split(X, y mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	var rng *rand.Rand
	if s.Shuffle {
		rng = rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)+1))
	}

	// Sorted class order keeps fold assignment deterministic for a fixed seed.
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	folds := make([]Fold, s.NSplits)

	// Deal each class block-by-block across folds.
	for _, label := range labels {
		indices := classIndices[label]
		if rng != nil {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		nClass := len(indices)
		foldSize := nClass / s.NSplits
		remainder := nClass % s.NSplits

		cursor := 0
		for f := 0; f < s.NSplits; f++ {
			take := foldSize
			if f < remainder {
				take++
			}
			for j := 0; j < take && cursor < nClass; j++ {
				folds[f].TestIndices = append(folds[f].TestIndices, indices[cursor])
				cursor++
			}
		}
	}

	for f := 0; f < s.NSplits; f++ {
		inTest := make(map[int]bool, len(folds[f].TestIndices))
		for _, idx := range folds[f].TestIndices {
			inTest[idx] = true
		}
		for i := 0; i < nSamples; i++ {
			if !inTest[i] {
				folds[f].TrainIndices = append(folds[f].TrainIndices, i)
			}
		}
	}

	return folds
}

// subset extracts the rows of X and y named by indices.
func subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	xOut := mat.NewDense(len(indices), xCols, nil)
	yOut := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xOut.Set(i, j, X.At(idx, j))
		}
		yOut.Set(i, 0, y.At(idx, 0))
	}
	return xOut, yOut
}
