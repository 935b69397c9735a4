// Package boost implements gradient-boosted decision trees for binary
// classification: an exact greedy trainer, a serializable model, stratified
// cross-validation and randomized hyperparameter search. It is the training
// engine behind both the cancellation classifier and the auxiliary
// feature-importance ranking in preprocessing.
package boost

import (
	"fmt"

	"github.com/staysense/cancelcast/pkg/errors"
)

// Params holds the training hyperparameters. Zero values are replaced by
// defaults in ApplyDefaults.
type Params struct {
	NumIterations   int     `json:"num_iterations"`
	LearningRate    float64 `json:"learning_rate"`
	NumLeaves       int     `json:"num_leaves"`
	MaxDepth        int     `json:"max_depth"`
	MinChildSamples int     `json:"min_child_samples"`
	Lambda          float64 `json:"lambda_l2"`
	MinGainToSplit  float64 `json:"min_gain_to_split"`
	BaggingFraction float64 `json:"bagging_fraction"`
	FeatureFraction float64 `json:"feature_fraction"`
	Seed            int64   `json:"seed"`
}

// DefaultParams returns the parameter set used when the search grid leaves
// a dimension unspecified.
func DefaultParams() Params {
	return Params{
		NumIterations:   100,
		LearningRate:    0.1,
		NumLeaves:       31,
		MaxDepth:        -1,
		MinChildSamples: 20,
		Lambda:          0.0,
		MinGainToSplit:  1e-7,
		BaggingFraction: 1.0,
		FeatureFraction: 1.0,
		Seed:            42,
	}
}

// ApplyDefaults fills unset fields with defaults.
func (p Params) ApplyDefaults() Params {
	d := DefaultParams()
	if p.NumIterations == 0 {
		p.NumIterations = d.NumIterations
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = d.NumLeaves
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinChildSamples == 0 {
		p.MinChildSamples = d.MinChildSamples
	}
	if p.MinGainToSplit == 0 {
		p.MinGainToSplit = d.MinGainToSplit
	}
	if p.BaggingFraction == 0 {
		p.BaggingFraction = d.BaggingFraction
	}
	if p.FeatureFraction == 0 {
		p.FeatureFraction = d.FeatureFraction
	}
	return p
}

// Validate rejects parameter values the trainer cannot honor.
func (p Params) Validate() error {
	if p.NumIterations < 1 {
		return errors.NewValueError("Params", fmt.Sprintf("num_iterations must be >= 1, got %d", p.NumIterations))
	}
	if p.LearningRate <= 0 {
		return errors.NewValueError("Params", fmt.Sprintf("learning_rate must be > 0, got %g", p.LearningRate))
	}
	if p.NumLeaves < 2 {
		return errors.NewValueError("Params", fmt.Sprintf("num_leaves must be >= 2, got %d", p.NumLeaves))
	}
	if p.BaggingFraction <= 0 || p.BaggingFraction > 1 {
		return errors.NewValueError("Params", fmt.Sprintf("bagging_fraction must be in (0,1], got %g", p.BaggingFraction))
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		return errors.NewValueError("Params", fmt.Sprintf("feature_fraction must be in (0,1], got %g", p.FeatureFraction))
	}
	return nil
}
