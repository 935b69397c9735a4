package pipeline

import (
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/metrics"
	"github.com/staysense/cancelcast/internal/preprocess"
	"github.com/staysense/cancelcast/internal/tracking"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// TrainResult is the training stage output: the persisted model, its test
// metrics and the experiment run record.
type TrainResult struct {
	BestParams boost.Params
	CVScore    float64
	Report     metrics.Report
	ModelPath  string
	Run        *tracking.Run
}

// train searches the hyperparameter grid, fits the best candidate on the
// full balanced training split, evaluates on the held-out test split and
// persists the model.
func (p *Pipeline) train(processed *preprocess.Result) (*TrainResult, error) {
	logger := log.GetLoggerWithName("pipeline.train")
	label := p.cfg.Preprocess.LabelColumn

	trainX, trainY, featureNames, err := processed.Train.SplitFeaturesLabel(label)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "prepare training data", err)
	}
	testX, testY, _, err := processed.Test.SplitFeaturesLabel(label)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "prepare test data", err)
	}

	scoring, err := boost.ParseScoring(p.cfg.Train.Scoring)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "scoring", err)
	}

	search := &boost.RandomSearch{
		Grid:    p.cfg.Train.Grid,
		NIter:   p.cfg.Train.SearchIterations,
		CVFolds: p.cfg.Train.CVFolds,
		Scoring: scoring,
		Seed:    p.cfg.Train.Seed,
	}
	searched, err := search.Run(trainX, trainY)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "hyperparameter search", err)
	}
	logger.Info("search selected parameters",
		"best_cv_score", searched.BestScore,
		"scoring", string(scoring),
		"candidates", len(searched.Candidates))

	clf := boost.NewClassifier(searched.BestParams)
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "final fit", err)
	}
	model, err := clf.Model()
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "final fit", err)
	}
	model.FeatureNames = featureNames

	pred, err := model.Predict(testX)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "evaluate", err)
	}
	rows, _ := testY.Dims()
	yVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, testY.At(i, 0))
	}
	report, err := metrics.Evaluate(yVec, pred)
	if err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "evaluate", err)
	}
	logger.Info("model evaluated",
		"accuracy", report.Accuracy,
		"precision", report.Precision,
		"recall", report.Recall,
		"f1", report.F1,
		log.SamplesKey, rows)

	modelPath := filepath.Join(p.cfg.ArtifactsDir, "models", "model.json")
	if err := model.Save(modelPath); err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "persist model", err)
	}

	run := tracking.NewRun(p.datasetRef())
	run.Params = searched.BestParams
	run.CVScore = searched.BestScore
	run.Scoring = string(scoring)
	run.Metrics = &report
	run.ModelPath = modelPath
	run.EncoderRef = processed.ArtifactPath

	return &TrainResult{
		BestParams: searched.BestParams,
		CVScore:    searched.BestScore,
		Report:     report,
		ModelPath:  modelPath,
		Run:        run,
	}, nil
}

// datasetRef names the data source for the run record.
func (p *Pipeline) datasetRef() string {
	if p.cfg.Storage.LocalPath != "" {
		return p.cfg.Storage.LocalPath
	}
	return "gs://" + p.cfg.Storage.Bucket + "/" + p.cfg.Storage.Object
}
