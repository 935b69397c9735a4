package preprocess

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// SMOTE oversamples the minority class with synthetic rows interpolated
// between a minority sample and one of its k nearest minority neighbors.
// It runs on the training split only.
type SMOTE struct {
	K    int
	Seed int64
}

// NewSMOTE creates a sampler with k neighbors; k < 1 falls back to 5.
func NewSMOTE(k int, seed int64) *SMOTE {
	if k < 1 {
		k = 5
	}
	return &SMOTE{K: k, Seed: seed}
}

// Balance appends synthetic minority rows until both classes have the same
// count. All columns except the label must be numeric by this point. The
// input table is not modified.
func (s *SMOTE) Balance(t *dataset.Table, labelColumn string) (*dataset.Table, error) {
	if t.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "SMOTE.Balance")
	}
	labels, err := t.Column(labelColumn)
	if err != nil {
		return nil, err
	}

	counts, err := t.ClassCounts(labelColumn)
	if err != nil {
		return nil, err
	}
	if len(counts) != 2 {
		return nil, errors.NewValueError("SMOTE.Balance", "expected exactly two classes")
	}

	minority, majority := "", ""
	classes := make([]string, 0, 2)
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	if counts[classes[0]] <= counts[classes[1]] {
		minority, majority = classes[0], classes[1]
	} else {
		minority, majority = classes[1], classes[0]
	}

	needed := counts[majority] - counts[minority]
	identity := make([]int, t.NumRows())
	for i := range identity {
		identity[i] = i
	}
	out := t.Subset(identity)
	if needed == 0 {
		return out, nil
	}

	labelIdx, err := t.ColumnIndex(labelColumn)
	if err != nil {
		return nil, err
	}
	minorityRows := make([]int, 0, counts[minority])
	for i, l := range labels {
		if l == minority {
			minorityRows = append(minorityRows, i)
		}
	}
	if len(minorityRows) < 2 {
		return nil, errors.NewValueError("SMOTE.Balance", "minority class needs at least two samples")
	}

	vectors, err := minorityVectors(t, minorityRows, labelIdx)
	if err != nil {
		return nil, err
	}

	k := s.K
	if k > len(minorityRows)-1 {
		k = len(minorityRows) - 1
	}
	neighbors := nearestNeighbors(vectors, k)

	rng := rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)+1))
	for n := 0; n < needed; n++ {
		i := rng.IntN(len(vectors))
		j := neighbors[i][rng.IntN(len(neighbors[i]))]
		gap := rng.Float64()

		synthetic := make([]string, t.NumCols())
		vi, vj := vectors[i], vectors[j]
		f := 0
		for c := 0; c < t.NumCols(); c++ {
			if c == labelIdx {
				synthetic[c] = minority
				continue
			}
			synthetic[c] = dataset.FormatFloat(vi[f] + gap*(vj[f]-vi[f]))
			f++
		}
		if err := out.AppendRow(synthetic); err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("preprocess.smote").Info("minority class oversampled",
		"minority_class", minority,
		"synthetic_rows", needed,
		log.SamplesKey, out.NumRows())
	return out, nil
}

// minorityVectors extracts the feature vectors of the given rows, parsing
// each column once.
func minorityVectors(t *dataset.Table, rows []int, labelIdx int) ([][]float64, error) {
	vectors := make([][]float64, len(rows))
	for i := range vectors {
		vectors[i] = make([]float64, 0, t.NumCols()-1)
	}
	for c, name := range t.Columns {
		if c == labelIdx {
			continue
		}
		values, err := t.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			vectors[i] = append(vectors[i], values[r])
		}
	}
	return vectors, nil
}

// nearestNeighbors returns, per vector, the indices of its k nearest other
// vectors by Euclidean distance.
func nearestNeighbors(vectors [][]float64, k int) [][]int {
	type candidate struct {
		idx  int
		dist float64
	}
	out := make([][]int, len(vectors))
	for i := range vectors {
		cands := make([]candidate, 0, len(vectors)-1)
		for j := range vectors {
			if j == i {
				continue
			}
			cands = append(cands, candidate{idx: j, dist: euclidean(vectors[i], vectors[j])})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].dist != cands[b].dist {
				return cands[a].dist < cands[b].dist
			}
			return cands[a].idx < cands[b].idx
		})
		nn := make([]int, 0, k)
		for _, c := range cands[:k] {
			nn = append(nn, c.idx)
		}
		out[i] = nn
	}
	return out
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
