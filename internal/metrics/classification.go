// Package metrics implements the binary classification metrics the training
// stage reports: accuracy, precision, recall, F1 and the confusion matrix
// they derive from. Inputs are label vectors with values 0 or 1.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// ConfusionCounts holds the four cells of a binary confusion matrix.
type ConfusionCounts struct {
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int
}

// ConfusionMatrix tallies prediction outcomes against true labels.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionCounts, error) {
	var c ConfusionCounts
	n := yTrue.Len()
	if n == 0 {
		return c, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return c, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	for i := 0; i < n; i++ {
		truth := yTrue.AtVec(i) >= 0.5
		pred := yPred.AtVec(i) >= 0.5
		switch {
		case truth && pred:
			c.TruePositive++
		case !truth && !pred:
			c.TrueNegative++
		case !truth && pred:
			c.FalsePositive++
		default:
			c.FalseNegative++
		}
	}
	return c, nil
}

// Accuracy is the fraction of predictions matching the true label.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Accuracy")
	}
	total := c.TruePositive + c.TrueNegative + c.FalsePositive + c.FalseNegative
	return float64(c.TruePositive+c.TrueNegative) / float64(total), nil
}

// Precision is TP / (TP + FP). With no positive predictions the metric is
// ill-defined; it returns 0 and logs a warning, matching scikit-learn's
// zero_division behavior.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Precision")
	}
	denom := c.TruePositive + c.FalsePositive
	if denom == 0 {
		log.GetLoggerWithName("metrics").Warn("precision is ill-defined and set to 0",
			"condition", "no positive predictions")
		return 0, nil
	}
	return float64(c.TruePositive) / float64(denom), nil
}

// Recall is TP / (TP + FN). With no positive labels the metric is
// ill-defined; it returns 0 and logs a warning.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Recall")
	}
	denom := c.TruePositive + c.FalseNegative
	if denom == 0 {
		log.GetLoggerWithName("metrics").Warn("recall is ill-defined and set to 0",
			"condition", "no positive labels")
		return 0, nil
	}
	return float64(c.TruePositive) / float64(denom), nil
}

// F1Score is the harmonic mean of precision and recall.
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	p, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "F1Score")
	}
	r, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "F1Score")
	}
	if p+r == 0 {
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// LogLoss is the negative mean log likelihood of the true labels under the
// predicted probabilities. Probabilities are clipped away from 0 and 1.
func LogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if yProb.Len() != n {
		return 0, errors.NewDimensionError("LogLoss", n, yProb.Len(), 0)
	}

	const eps = 1e-15
	sum := 0.0
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yProb.AtVec(i), eps), 1-eps)
		if yTrue.AtVec(i) >= 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// Report bundles the four evaluation metrics logged per training run.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluate computes the full report from true labels and predicted labels.
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	var r Report
	var err error
	if r.Accuracy, err = Accuracy(yTrue, yPred); err != nil {
		return r, err
	}
	if r.Precision, err = Precision(yTrue, yPred); err != nil {
		return r, err
	}
	if r.Recall, err = Recall(yTrue, yPred); err != nil {
		return r, err
	}
	if r.F1, err = F1Score(yTrue, yPred); err != nil {
		return r, err
	}
	return r, nil
}
