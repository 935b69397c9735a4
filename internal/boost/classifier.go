package boost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/internal/metrics"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Classifier wraps Trainer and Model behind a fit/predict API. It is the
// estimator the training stage searches over and the preprocessing stage
// uses for importance ranking.
type Classifier struct {
	Params Params

	model  *Model
	fitted bool
}

// NewClassifier creates an unfitted classifier with the given parameters.
func NewClassifier(params Params) *Classifier {
	return &Classifier{Params: params.ApplyDefaults()}
}

// Fit trains the classifier on X and binary labels y.
func (c *Classifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Classifier.Fit")

	trainer := NewTrainer(c.Params)
	if err := trainer.Fit(X, y); err != nil {
		return err
	}
	c.model = trainer.Model()
	c.fitted = true

	rows, cols := X.Dims()
	log.GetLoggerWithName("boost.classifier").Debug("classifier fitted",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"trees", len(c.model.Trees))
	return nil
}

// IsFitted reports whether Fit has completed.
func (c *Classifier) IsFitted() bool {
	return c.fitted
}

// Model returns the fitted ensemble.
func (c *Classifier) Model() (*Model, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("Classifier", "Model")
	}
	return c.model, nil
}

// Predict returns hard 0/1 labels for X.
func (c *Classifier) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("Classifier", "Predict")
	}
	return c.model.Predict(X)
}

// PredictProba returns positive-class probabilities for X.
func (c *Classifier) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("Classifier", "PredictProba")
	}
	return c.model.PredictProba(X)
}

// Score returns accuracy on X against true labels y.
func (c *Classifier) Score(X, y mat.Matrix) (float64, error) {
	if !c.fitted {
		return 0, errors.NewNotFittedError("Classifier", "Score")
	}
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := y.Dims()
	yVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	return metrics.Accuracy(yVec, pred)
}

// FeatureImportance returns the fitted model's importance scores.
func (c *Classifier) FeatureImportance(kind ImportanceType) ([]float64, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("Classifier", "FeatureImportance")
	}
	return c.model.FeatureImportance(kind), nil
}
