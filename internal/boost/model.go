package boost

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
)

// Model is a fitted boosted-tree ensemble. It is immutable after training;
// the inference service shares one instance across requests.
type Model struct {
	NumFeatures   int      `json:"num_features"`
	NumIterations int      `json:"num_iterations"`
	LearningRate  float64  `json:"learning_rate"`
	NumLeaves     int      `json:"num_leaves"`
	MaxDepth      int      `json:"max_depth"`
	InitScore     float64  `json:"init_score"`
	FeatureNames  []string `json:"feature_names,omitempty"`
	Trees         []Tree   `json:"trees"`
	Params        Params   `json:"params"`
}

// RawScore accumulates the log-odds prediction for one sample.
func (m *Model) RawScore(features []float64) float64 {
	score := m.InitScore
	for i := range m.Trees {
		score += m.Trees[i].Predict(features)
	}
	return score
}

// PredictProba returns the positive-class probability for each row of X.
func (m *Model) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Model.PredictProba", m.NumFeatures, cols, 1)
	}
	probs := mat.NewVecDense(rows, nil)
	features := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(features, i, X)
		probs.SetVec(i, Sigmoid(m.RawScore(features)))
	}
	return probs, nil
}

// Predict returns hard 0/1 labels at the 0.5 threshold.
func (m *Model) Predict(X mat.Matrix) (*mat.VecDense, error) {
	probs, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := mat.NewVecDense(probs.Len(), nil)
	for i := 0; i < probs.Len(); i++ {
		if probs.AtVec(i) >= 0.5 {
			labels.SetVec(i, 1)
		}
	}
	return labels, nil
}

// PredictSingle returns the positive-class probability for one feature
// vector. The inference service uses this per request.
func (m *Model) PredictSingle(features []float64) (float64, error) {
	if len(features) != m.NumFeatures {
		return 0, errors.NewDimensionError("Model.PredictSingle", m.NumFeatures, len(features), 1)
	}
	return Sigmoid(m.RawScore(features)), nil
}

// ImportanceType selects how feature importance is aggregated.
type ImportanceType string

const (
	// ImportanceGain sums the split gains per feature.
	ImportanceGain ImportanceType = "gain"
	// ImportanceSplit counts how often a feature is split on.
	ImportanceSplit ImportanceType = "split"
)

// FeatureImportance returns normalized per-feature importance scores.
func (m *Model) FeatureImportance(kind ImportanceType) []float64 {
	importance := make([]float64, m.NumFeatures)
	for i := range m.Trees {
		for j := range m.Trees[i].Nodes {
			node := &m.Trees[i].Nodes[j]
			if node.IsLeaf() {
				continue
			}
			switch kind {
			case ImportanceSplit:
				importance[node.SplitFeature]++
			default:
				importance[node.SplitFeature] += node.Gain
			}
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}

// Save persists the model as JSON, creating parent directories and
// overwriting any previous artifact.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewArtifactError("Model.Save", path, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.NewArtifactError("Model.Save", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewArtifactError("Model.Save", path, err)
	}
	return nil
}

// LoadModel reads a model artifact written by Save. A missing or corrupt
// file is an ArtifactError, which the inference service treats as fatal.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewArtifactError("LoadModel", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewArtifactError("LoadModel", path, err)
	}
	if m.NumFeatures <= 0 || len(m.Trees) == 0 {
		return nil, errors.NewArtifactError("LoadModel", path, errors.New("model artifact has no trees"))
	}
	return &m, nil
}
