package boost

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Grid enumerates candidate values per hyperparameter. Empty lists fall
// back to the default for that dimension.
type Grid struct {
	NumIterations   []int     `json:"num_iterations" koanf:"num_iterations"`
	LearningRate    []float64 `json:"learning_rate" koanf:"learning_rate"`
	NumLeaves       []int     `json:"num_leaves" koanf:"num_leaves"`
	MaxDepth        []int     `json:"max_depth" koanf:"max_depth"`
	MinChildSamples []int     `json:"min_child_samples" koanf:"min_child_samples"`
	Lambda          []float64 `json:"lambda_l2" koanf:"lambda_l2"`
	BaggingFraction []float64 `json:"bagging_fraction" koanf:"bagging_fraction"`
	FeatureFraction []float64 `json:"feature_fraction" koanf:"feature_fraction"`
}

// IsEmpty reports whether no dimension has any candidate values.
func (g Grid) IsEmpty() bool {
	return len(g.NumIterations) == 0 &&
		len(g.LearningRate) == 0 &&
		len(g.NumLeaves) == 0 &&
		len(g.MaxDepth) == 0 &&
		len(g.MinChildSamples) == 0 &&
		len(g.Lambda) == 0 &&
		len(g.BaggingFraction) == 0 &&
		len(g.FeatureFraction) == 0
}

// Size returns the number of distinct combinations in the grid.
func (g Grid) Size() int {
	size := 1
	mul := func(n int) {
		if n > 0 {
			size *= n
		}
	}
	mul(len(g.NumIterations))
	mul(len(g.LearningRate))
	mul(len(g.NumLeaves))
	mul(len(g.MaxDepth))
	mul(len(g.MinChildSamples))
	mul(len(g.Lambda))
	mul(len(g.BaggingFraction))
	mul(len(g.FeatureFraction))
	return size
}

// sample draws one parameter combination; unset dimensions keep defaults.
func (g Grid) sample(rng *rand.Rand, seed int64) Params {
	p := DefaultParams()
	p.Seed = seed
	if len(g.NumIterations) > 0 {
		p.NumIterations = g.NumIterations[rng.IntN(len(g.NumIterations))]
	}
	if len(g.LearningRate) > 0 {
		p.LearningRate = g.LearningRate[rng.IntN(len(g.LearningRate))]
	}
	if len(g.NumLeaves) > 0 {
		p.NumLeaves = g.NumLeaves[rng.IntN(len(g.NumLeaves))]
	}
	if len(g.MaxDepth) > 0 {
		p.MaxDepth = g.MaxDepth[rng.IntN(len(g.MaxDepth))]
	}
	if len(g.MinChildSamples) > 0 {
		p.MinChildSamples = g.MinChildSamples[rng.IntN(len(g.MinChildSamples))]
	}
	if len(g.Lambda) > 0 {
		p.Lambda = g.Lambda[rng.IntN(len(g.Lambda))]
	}
	if len(g.BaggingFraction) > 0 {
		p.BaggingFraction = g.BaggingFraction[rng.IntN(len(g.BaggingFraction))]
	}
	if len(g.FeatureFraction) > 0 {
		p.FeatureFraction = g.FeatureFraction[rng.IntN(len(g.FeatureFraction))]
	}
	return p
}

// Candidate is one evaluated parameter combination.
type Candidate struct {
	Params    Params  `json:"params"`
	MeanScore float64 `json:"mean_score"`
}

// SearchResult is the outcome of a randomized search.
type SearchResult struct {
	BestParams Params        `json:"best_params"`
	BestScore  float64       `json:"best_score"`
	Candidates []Candidate   `json:"candidates"`
	Elapsed    time.Duration `json:"-"`
}

// RandomSearch samples NIter parameter combinations from the grid and
// cross-validates each, returning the combination with the best mean
// validation score under the given scoring metric.
type RandomSearch struct {
	Grid    Grid
	NIter   int
	CVFolds int
	Scoring Scoring
	Seed    int64
}

// Run executes the search on X and labels y.
func (rs *RandomSearch) Run(X, y mat.Matrix) (*SearchResult, error) {
	if rs.Grid.IsEmpty() {
		return nil, errors.Wrap(errors.ErrEmptyGrid, "RandomSearch.Run")
	}
	rows, _ := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "RandomSearch.Run")
	}

	nIter := rs.NIter
	if nIter < 1 {
		nIter = 10
	}
	if size := rs.Grid.Size(); nIter > size {
		nIter = size
	}

	logger := log.GetLoggerWithName("boost.search")
	rng := rand.New(rand.NewPCG(uint64(rs.Seed), uint64(rs.Seed)+1))
	splitter := NewStratifiedKFold(rs.CVFolds, true, rs.Seed)

	start := time.Now()
	result := &SearchResult{BestScore: math.Inf(-1)}
	seen := make(map[Params]bool)

	for i := 0; i < nIter; i++ {
		params := rs.Grid.sample(rng, rs.Seed)

		// Skip duplicates; bounded retries keep small grids terminating.
		for attempt := 0; seen[params] && attempt < 20; attempt++ {
			params = rs.Grid.sample(rng, rs.Seed)
		}
		if seen[params] {
			continue
		}
		seen[params] = true

		cv, err := CrossValidate(params, X, y, splitter, rs.Scoring)
		if err != nil {
			return nil, errors.Wrapf(err, "RandomSearch: candidate %d", i)
		}

		mean := cv.Mean()
		result.Candidates = append(result.Candidates, Candidate{Params: params, MeanScore: mean})
		logger.Debug("candidate evaluated",
			"candidate", i,
			"mean_score", mean,
			"num_leaves", params.NumLeaves,
			"learning_rate", params.LearningRate)

		if mean > result.BestScore {
			result.BestScore = mean
			result.BestParams = params
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info("search finished",
		"candidates", len(result.Candidates),
		"best_score", result.BestScore,
		log.DurationMsKey, result.Elapsed.Milliseconds())
	return result, nil
}
