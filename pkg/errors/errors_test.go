package errors

import (
	"strings"
	"testing"
)

func TestStageErrorWrapping(t *testing.T) {
	cause := New("object not found")
	err := NewStageError(StageIngestion, "download", cause)

	if !Is(err, cause) {
		t.Error("StageError should unwrap to its cause")
	}

	var stageErr *StageError
	if !As(err, &stageErr) {
		t.Fatal("expected error chain to contain *StageError")
	}
	if stageErr.Stage != StageIngestion {
		t.Errorf("stage = %q, want %q", stageErr.Stage, StageIngestion)
	}
	if !strings.Contains(err.Error(), "ingestion") {
		t.Errorf("error message should name the stage: %v", err)
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("Classifier", "Predict")

	var nf *NotFittedError
	if !As(err, &nf) {
		t.Fatal("expected *NotFittedError in chain")
	}
	if nf.EstimatorName != "Classifier" || nf.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nf)
	}
}

func TestDimensionErrorMessage(t *testing.T) {
	err := NewDimensionError("Fit", 10, 8, 0)
	msg := err.Error()
	if !strings.Contains(msg, "rows") {
		t.Errorf("axis 0 should report rows: %s", msg)
	}

	err = NewDimensionError("Predict", 5, 3, 1)
	if !strings.Contains(err.Error(), "features") {
		t.Errorf("axis 1 should report features: %s", err.Error())
	}
}

func TestArtifactErrorUnwrap(t *testing.T) {
	cause := New("unexpected EOF")
	err := NewArtifactError("LoadModel", "artifacts/models/model.json", cause)
	if !Is(err, cause) {
		t.Error("ArtifactError should unwrap to its cause")
	}
}

func TestRecoverConvertsPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "test.op")
		panic("boom")
	}

	err := fn()
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if pe.Operation != "test.op" {
		t.Errorf("operation = %q", pe.Operation)
	}
}
