package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	if len(values) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(values), values)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := vec(1, 1, 0, 0, 1, 0)
	yPred := vec(1, 0, 0, 1, 1, 0)

	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix: %v", err)
	}
	if c.TruePositive != 2 || c.FalseNegative != 1 || c.FalsePositive != 1 || c.TrueNegative != 2 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestAccuracyPerfect(t *testing.T) {
	y := vec(0, 1, 1, 0)
	acc, err := Accuracy(y, y)
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if acc != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", acc)
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := vec(1, 1, 0, 0, 1, 0, 1, 0)
	yPred := vec(1, 0, 0, 1, 1, 0, 1, 1)

	// TP=3, FP=2, FN=1
	p, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision: %v", err)
	}
	if math.Abs(p-0.6) > 1e-12 {
		t.Errorf("precision = %v, want 0.6", p)
	}

	r, err := Recall(yTrue, yPred)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if math.Abs(r-0.75) > 1e-12 {
		t.Errorf("recall = %v, want 0.75", r)
	}

	f1, err := F1Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1Score: %v", err)
	}
	want := 2 * 0.6 * 0.75 / (0.6 + 0.75)
	if math.Abs(f1-want) > 1e-12 {
		t.Errorf("f1 = %v, want %v", f1, want)
	}
}

func TestPrecisionNoPositivePredictions(t *testing.T) {
	yTrue := vec(1, 0, 1)
	yPred := vec(0, 0, 0)

	p, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision: %v", err)
	}
	if p != 0 {
		t.Errorf("ill-defined precision should be 0, got %v", p)
	}
}

func TestLogLossBounds(t *testing.T) {
	yTrue := vec(1, 0)
	yProb := vec(0.9, 0.1)

	ll, err := LogLoss(yTrue, yProb)
	if err != nil {
		t.Fatalf("LogLoss: %v", err)
	}
	want := -math.Log(0.9)
	if math.Abs(ll-want) > 1e-12 {
		t.Errorf("logloss = %v, want %v", ll, want)
	}

	// Extreme probabilities must not produce Inf.
	ll, err = LogLoss(vec(1), vec(0))
	if err != nil {
		t.Fatalf("LogLoss clipped: %v", err)
	}
	if math.IsInf(ll, 0) || math.IsNaN(ll) {
		t.Errorf("logloss not clipped: %v", ll)
	}
}

func TestEvaluateRangeAndErrors(t *testing.T) {
	yTrue := vec(1, 0, 1, 1, 0)
	yPred := vec(1, 0, 0, 1, 1)

	report, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for name, v := range map[string]float64{
		"accuracy":  report.Accuracy,
		"precision": report.Precision,
		"recall":    report.Recall,
		"f1":        report.F1,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v outside [0,1]", name, v)
		}
	}

	if _, err := Accuracy(vec(), vec()); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := Accuracy(vec(1, 0), vec(1)); err == nil {
		t.Error("length mismatch should fail")
	}
}
