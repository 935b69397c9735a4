package boost

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
)

func fittedModel(t *testing.T) *Model {
	t.Helper()
	X, y := separableData(150)
	trainer := NewTrainer(Params{
		NumIterations:   8,
		NumLeaves:       7,
		MaxDepth:        3,
		MinChildSamples: 5,
		Seed:            3,
	})
	if err := trainer.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	m := trainer.Model()
	m.FeatureNames = []string{"lead_time", "adr", "total_nights"}
	return m
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	m := fittedModel(t)
	path := filepath.Join(t.TempDir(), "models", "model.json")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	if loaded.NumFeatures != m.NumFeatures || len(loaded.Trees) != len(m.Trees) {
		t.Fatalf("shape changed on round trip")
	}
	if loaded.FeatureNames[0] != "lead_time" {
		t.Errorf("feature names not persisted: %v", loaded.FeatureNames)
	}

	features := []float64{0.8, 0.3, 0.5}
	want, err := m.PredictSingle(features)
	if err != nil {
		t.Fatalf("PredictSingle: %v", err)
	}
	got, err := loaded.PredictSingle(features)
	if err != nil {
		t.Fatalf("PredictSingle loaded: %v", err)
	}
	if math.Abs(want-got) > 1e-12 {
		t.Errorf("round trip changed prediction: %v vs %v", want, got)
	}
}

func TestLoadModelMissing(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	var ae *errors.ArtifactError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ArtifactError, got %v", err)
	}
}

func TestModelOverwrite(t *testing.T) {
	m := fittedModel(t)
	path := filepath.Join(t.TempDir(), "model.json")

	if err := m.Save(path); err != nil {
		t.Fatalf("first save: %v", err)
	}
	m.NumIterations = 1
	m.Trees = m.Trees[:1]
	if err := m.Save(path); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(loaded.Trees) != 1 {
		t.Errorf("overwrite did not replace artifact: %d trees", len(loaded.Trees))
	}
}

func TestFeatureImportanceNormalized(t *testing.T) {
	m := fittedModel(t)

	importance := m.FeatureImportance(ImportanceGain)
	if len(importance) != m.NumFeatures {
		t.Fatalf("importance length = %d", len(importance))
	}
	sum := 0.0
	for _, v := range importance {
		if v < 0 {
			t.Errorf("negative importance: %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("importance sum = %v, want 1", sum)
	}

	// The label depends on feature 0 only; it must dominate.
	if importance[0] < importance[1] || importance[0] < importance[2] {
		t.Errorf("feature 0 should dominate importance: %v", importance)
	}
}

func TestPredictDimensionCheck(t *testing.T) {
	m := fittedModel(t)
	_, err := m.Predict(mat.NewDense(2, 5, nil))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
}
