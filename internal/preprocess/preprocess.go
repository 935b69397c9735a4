package preprocess

import (
	"path/filepath"
	"time"

	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Config drives the preprocessing stage.
type Config struct {
	LabelColumn        string
	CategoricalColumns []string
	NumericColumns     []string
	SkewThreshold      float64
	FeatureCount       int
	SMOTENeighbors     int
	Seed               int64
	ArtifactsDir       string
}

// Result carries the processed splits and artifact locations to the
// training stage.
type Result struct {
	Train *dataset.Table
	Test  *dataset.Table

	Artifact     *Artifact
	TrainPath    string
	TestPath     string
	ArtifactPath string
}

// Preprocessor applies the full transformation chain: encode categoricals,
// correct skew, balance the training split, select features, persist.
type Preprocessor struct {
	cfg    Config
	logger log.Logger
}

// New creates a preprocessor.
func New(cfg Config) *Preprocessor {
	return &Preprocessor{cfg: cfg, logger: log.GetLoggerWithName("pipeline.preprocess")}
}

// Run transforms both splits. Everything is fitted on train and applied
// identically to test; only oversampling touches train alone. Encoding and
// skew correction rewrite the caller's tables in place; the split CSVs on
// disk are the pre-transformation record.
func (p *Preprocessor) Run(train, test *dataset.Table) (*Result, error) {
	start := time.Now()
	if train.NumRows() == 0 || test.NumRows() == 0 {
		return nil, errors.NewStageError(errors.StagePreprocessing, "Run", errors.ErrEmptyData)
	}

	artifact := &Artifact{LabelColumn: p.cfg.LabelColumn}

	for _, col := range p.cfg.CategoricalColumns {
		enc := NewLabelEncoder(col)
		values, err := train.Column(col)
		if err != nil {
			return nil, errors.NewStageError(errors.StagePreprocessing, "encode "+col, err)
		}
		if err := enc.Fit(values); err != nil {
			return nil, errors.NewStageError(errors.StagePreprocessing, "encode "+col, err)
		}
		if err := applyEncoder(train, enc); err != nil {
			return nil, errors.NewStageError(errors.StagePreprocessing, "encode "+col, err)
		}
		if err := applyEncoder(test, enc); err != nil {
			return nil, errors.NewStageError(errors.StagePreprocessing, "encode "+col, err)
		}
		artifact.Encoders = append(artifact.Encoders, enc)
	}

	corrected, err := correctSkew(train, test, p.cfg.NumericColumns, p.cfg.SkewThreshold)
	if err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "skew correction", err)
	}
	artifact.SkewCorrected = corrected

	balanced, err := NewSMOTE(p.cfg.SMOTENeighbors, p.cfg.Seed).Balance(train, p.cfg.LabelColumn)
	if err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "oversampling", err)
	}

	selected, err := SelectFeatures(balanced, p.cfg.LabelColumn, p.cfg.FeatureCount, p.cfg.Seed)
	if err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "feature selection", err)
	}
	artifact.FeatureColumns = selected

	kept := append(append([]string{}, selected...), p.cfg.LabelColumn)
	trainOut, err := balanced.Select(kept)
	if err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "feature selection", err)
	}
	testOut, err := test.Select(kept)
	if err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "feature selection", err)
	}

	dir := filepath.Join(p.cfg.ArtifactsDir, "processed")
	result := &Result{
		Train:        trainOut,
		Test:         testOut,
		Artifact:     artifact,
		TrainPath:    filepath.Join(dir, "train_processed.csv"),
		TestPath:     filepath.Join(dir, "test_processed.csv"),
		ArtifactPath: filepath.Join(dir, "encoders.json"),
	}

	if err := trainOut.WriteCSVFile(result.TrainPath); err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "write train artifact", err)
	}
	if err := testOut.WriteCSVFile(result.TestPath); err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "write test artifact", err)
	}
	if err := artifact.Save(result.ArtifactPath); err != nil {
		return nil, errors.NewStageError(errors.StagePreprocessing, "write encoder artifact", err)
	}

	p.logger.Info("preprocessing finished",
		log.SamplesKey, trainOut.NumRows(),
		log.FeaturesKey, len(selected),
		"skew_corrected", len(corrected),
		log.DurationMsKey, time.Since(start).Milliseconds())
	return result, nil
}

func applyEncoder(t *dataset.Table, enc *LabelEncoder) error {
	values, err := t.Column(enc.Column)
	if err != nil {
		return err
	}
	codes, err := enc.Transform(values)
	if err != nil {
		return err
	}
	encoded := make([]string, len(codes))
	for i, c := range codes {
		encoded[i] = dataset.FormatFloat(float64(c))
	}
	return t.SetColumn(enc.Column, encoded)
}
