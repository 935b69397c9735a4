// Package preprocess turns raw split tables into the numeric, balanced,
// reduced feature tables the trainer consumes. The fitted encoders and the
// selected feature schema are persisted so the inference service applies the
// exact transformation the model was trained on.
package preprocess

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// LabelEncoder maps the distinct string values of one categorical column to
// integer codes 0..k-1 in sorted value order. The mapping is fitted on the
// training split only; values never seen during fit encode to the unknown
// bucket (code k).
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"`

	codes map[string]int
}

// NewLabelEncoder creates an unfitted encoder for a column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{Column: column}
}

// Fit learns the sorted distinct values of the column.
func (e *LabelEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LabelEncoder.Fit")
	}
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	e.Classes = make([]string, 0, len(distinct))
	for v := range distinct {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
	e.rebuildIndex()
	return nil
}

// IsFitted reports whether the encoder has learned a mapping.
func (e *LabelEncoder) IsFitted() bool {
	return len(e.Classes) > 0
}

// UnknownCode is the code assigned to values outside the fitted classes.
func (e *LabelEncoder) UnknownCode() int {
	return len(e.Classes)
}

// Encode maps one value to its code. The second return reports whether the
// value was seen during fit.
func (e *LabelEncoder) Encode(value string) (int, bool) {
	if e.codes == nil {
		e.rebuildIndex()
	}
	code, ok := e.codes[value]
	if !ok {
		return e.UnknownCode(), false
	}
	return code, true
}

// Decode maps a code back to its value. The unknown bucket has no value.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", errors.NewValueError("LabelEncoder.Decode", "code out of range")
	}
	return e.Classes[code], nil
}

// Transform encodes a full column. Unseen values go to the unknown bucket
// and are logged once per distinct value.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	logger := log.GetLoggerWithName("preprocess.encoder")
	warned := make(map[string]bool)
	out := make([]int, len(values))
	for i, v := range values {
		code, seen := e.Encode(v)
		if !seen && !warned[v] {
			warned[v] = true
			logger.Warn("unseen category mapped to unknown bucket",
				"column", e.Column,
				"value", v,
				"code", code)
		}
		out[i] = code
	}
	return out, nil
}

func (e *LabelEncoder) rebuildIndex() {
	e.codes = make(map[string]int, len(e.Classes))
	for i, v := range e.Classes {
		e.codes[v] = i
	}
}

// Artifact is the persisted preprocessing state the inference service loads:
// the fitted encoders, the columns that were log-transformed, and the
// selected feature schema in model column order.
type Artifact struct {
	LabelColumn    string          `json:"label_column"`
	Encoders       []*LabelEncoder `json:"encoders"`
	SkewCorrected  []string        `json:"skew_corrected_columns"`
	FeatureColumns []string        `json:"feature_columns"`
}

// Encoder returns the fitted encoder for a column, if any.
func (a *Artifact) Encoder(column string) (*LabelEncoder, bool) {
	for _, e := range a.Encoders {
		if e.Column == column {
			return e, true
		}
	}
	return nil, false
}

// IsSkewCorrected reports whether a column was log-transformed during fit.
func (a *Artifact) IsSkewCorrected(column string) bool {
	for _, c := range a.SkewCorrected {
		if c == column {
			return true
		}
	}
	return false
}

// Save writes the artifact as indented JSON, overwriting any previous file.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.NewArtifactError("Artifact.Save", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewArtifactError("Artifact.Save", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewArtifactError("Artifact.Save", path, err)
	}
	return nil
}

// LoadArtifact reads a persisted artifact. A missing or corrupt file is an
// ArtifactError so service startup can fail fast.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewArtifactError("LoadArtifact", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.NewArtifactError("LoadArtifact", path, err)
	}
	if len(a.FeatureColumns) == 0 {
		return nil, errors.NewArtifactError("LoadArtifact", path, errors.New("no feature schema"))
	}
	for _, e := range a.Encoders {
		e.rebuildIndex()
	}
	return &a, nil
}
