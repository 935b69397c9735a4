// Package tracking records one append-only JSON line per training run, so
// experiments stay comparable across reruns without an external tracking
// server.
package tracking

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/metrics"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Run is one training run record. Past runs are never mutated or deleted.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	DatasetRef string          `json:"dataset_ref"`
	Params     boost.Params    `json:"params"`
	CVScore    float64         `json:"cv_score"`
	Scoring    string          `json:"scoring"`
	Metrics    *metrics.Report `json:"metrics"`
	ModelPath  string          `json:"model_path"`
	EncoderRef string          `json:"encoder_ref"`
}

// NewRun creates a run record with a fresh id and UTC timestamp.
func NewRun(datasetRef string) *Run {
	return &Run{
		ID:         uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		DatasetRef: datasetRef,
	}
}

// Tracker appends run records to <dir>/runs.jsonl.
type Tracker struct {
	path   string
	logger log.Logger
}

// New creates a tracker writing under dir.
func New(dir string) *Tracker {
	return &Tracker{
		path:   filepath.Join(dir, "runs.jsonl"),
		logger: log.GetLoggerWithName("tracking"),
	}
}

// Path returns the run log location.
func (t *Tracker) Path() string {
	return t.path
}

// Record appends one run as a single JSON line.
func (t *Tracker) Record(run *Run) error {
	if run.ID == "" {
		return errors.NewValueError("Tracker.Record", "run has no id")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return errors.NewArtifactError("Tracker.Record", t.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return errors.NewArtifactError("Tracker.Record", t.path, err)
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewArtifactError("Tracker.Record", t.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.NewArtifactError("Tracker.Record", t.path, err)
	}

	t.logger.Info("run recorded",
		log.RunIDKey, run.ID,
		"dataset_ref", run.DatasetRef,
		"cv_score", run.CVScore)
	return nil
}

// List reads all recorded runs in append order. A missing log means no runs
// yet, not an error.
func (t *Tracker) List() ([]*Run, error) {
	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewArtifactError("Tracker.List", t.path, err)
	}
	defer f.Close()

	var runs []*Run
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			return nil, errors.NewArtifactError("Tracker.List", t.path, err)
		}
		runs = append(runs, &run)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewArtifactError("Tracker.List", t.path, err)
	}
	return runs, nil
}
