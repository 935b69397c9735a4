package boost

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/internal/metrics"
	"github.com/staysense/cancelcast/pkg/errors"
)

// Scoring selects the metric cross-validation optimizes. All supported
// metrics are higher-is-better.
type Scoring string

const (
	ScoreAccuracy  Scoring = "accuracy"
	ScorePrecision Scoring = "precision"
	ScoreRecall    Scoring = "recall"
	ScoreF1        Scoring = "f1"
	// ScoreNegLogLoss is the negated log loss, so it ranks the same way as
	// the label-based metrics.
	ScoreNegLogLoss Scoring = "neg_log_loss"
)

// ParseScoring validates a configured scoring name.
func ParseScoring(name string) (Scoring, error) {
	switch Scoring(name) {
	case ScoreAccuracy, ScorePrecision, ScoreRecall, ScoreF1, ScoreNegLogLoss:
		return Scoring(name), nil
	case "":
		return ScoreF1, nil
	default:
		return "", errors.NewValueError("ParseScoring", fmt.Sprintf("unknown scoring metric %q", name))
	}
}

// score applies a label-based metric. Probability-based metrics such as
// neg_log_loss are handled separately in CrossValidate.
func (s Scoring) score(yTrue, yPred *mat.VecDense) (float64, error) {
	switch s {
	case ScoreAccuracy:
		return metrics.Accuracy(yTrue, yPred)
	case ScorePrecision:
		return metrics.Precision(yTrue, yPred)
	case ScoreRecall:
		return metrics.Recall(yTrue, yPred)
	case ScoreF1:
		return metrics.F1Score(yTrue, yPred)
	default:
		return 0, errors.NewValueError("Scoring.score",
			fmt.Sprintf("metric %q has no label-based scorer", string(s)))
	}
}

// CVResult holds per-fold validation scores for one parameter set.
type CVResult struct {
	Scores []float64
}

// Mean returns the mean validation score.
func (r *CVResult) Mean() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range r.Scores {
		sum += s
	}
	return sum / float64(len(r.Scores))
}

// CrossValidate fits one classifier per fold and scores it on the held-out
// fold. Folds run sequentially.
func CrossValidate(params Params, X, y mat.Matrix, splitter *StratifiedKFold, scoring Scoring) (*CVResult, error) {
	rows, _ := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "CrossValidate")
	}
	if rows < splitter.NSplits {
		return nil, errors.NewValueError("CrossValidate",
			fmt.Sprintf("%d samples cannot fill %d folds", rows, splitter.NSplits))
	}

	folds := splitter.Split(X, y)
	result := &CVResult{Scores: make([]float64, 0, len(folds))}

	for i, fold := range folds {
		if len(fold.TestIndices) == 0 || len(fold.TrainIndices) == 0 {
			return nil, errors.NewValueError("CrossValidate",
				fmt.Sprintf("fold %d has an empty split", i))
		}
		trainX, trainY := subset(X, y, fold.TrainIndices)
		testX, testY := subset(X, y, fold.TestIndices)

		clf := NewClassifier(params)
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "CrossValidate: fold %d", i)
		}

		yVec := mat.NewVecDense(len(fold.TestIndices), nil)
		for j := range fold.TestIndices {
			yVec.SetVec(j, testY.At(j, 0))
		}

		var score float64
		if scoring == ScoreNegLogLoss {
			proba, err := clf.PredictProba(testX)
			if err != nil {
				return nil, errors.Wrapf(err, "CrossValidate: fold %d", i)
			}
			ll, err := metrics.LogLoss(yVec, proba)
			if err != nil {
				return nil, errors.Wrapf(err, "CrossValidate: fold %d", i)
			}
			score = -ll
		} else {
			pred, err := clf.Predict(testX)
			if err != nil {
				return nil, errors.Wrapf(err, "CrossValidate: fold %d", i)
			}
			score, err = scoring.score(yVec, pred)
			if err != nil {
				return nil, errors.Wrapf(err, "CrossValidate: fold %d", i)
			}
		}
		result.Scores = append(result.Scores, score)
	}

	return result, nil
}
