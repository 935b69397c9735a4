package ingest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Config drives the ingestion stage.
type Config struct {
	TrainRatio   float64
	Seed         int64
	ArtifactsDir string
}

// Result carries the split tables and artifact paths to preprocessing.
type Result struct {
	Train *dataset.Table
	Test  *dataset.Table

	RawPath   string
	TrainPath string
	TestPath  string
}

// Ingestor downloads the raw dataset, shuffles it with a fixed seed and
// splits it by the configured train ratio.
type Ingestor struct {
	cfg     Config
	fetcher ObjectFetcher
	logger  log.Logger
}

// New creates an ingestor using the given fetcher.
func New(cfg Config, fetcher ObjectFetcher) *Ingestor {
	return &Ingestor{cfg: cfg, fetcher: fetcher, logger: log.GetLoggerWithName("pipeline.ingest")}
}

// Run fetches, shuffles and splits. The train split holds round(ratio*n)
// rows; every input row lands in exactly one split.
func (in *Ingestor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStageError(errors.StageIngestion, "Run", err)
	}
	if in.cfg.TrainRatio <= 0 || in.cfg.TrainRatio >= 1 {
		return nil, errors.NewStageError(errors.StageIngestion, "Run",
			errors.NewValueError("Run", fmt.Sprintf("train ratio %v outside (0, 1)", in.cfg.TrainRatio)))
	}

	rawDir := filepath.Join(in.cfg.ArtifactsDir, "raw")
	result := &Result{
		RawPath:   filepath.Join(rawDir, "raw.csv"),
		TrainPath: filepath.Join(rawDir, "train.csv"),
		TestPath:  filepath.Join(rawDir, "test.csv"),
	}

	if err := in.fetcher.Fetch(ctx, result.RawPath); err != nil {
		return nil, errors.NewStageError(errors.StageIngestion, "fetch", err)
	}
	raw, err := dataset.ReadCSVFile(result.RawPath)
	if err != nil {
		return nil, errors.NewStageError(errors.StageIngestion, "load raw dataset", err)
	}
	n := raw.NumRows()
	if n == 0 {
		return nil, errors.NewStageError(errors.StageIngestion, "load raw dataset", errors.ErrEmptyData)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(in.cfg.Seed), uint64(in.cfg.Seed)+1))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	nTrain := int(math.Round(in.cfg.TrainRatio * float64(n)))
	if nTrain == 0 || nTrain == n {
		return nil, errors.NewStageError(errors.StageIngestion, "split",
			errors.NewValueError("split", "split leaves one side empty"))
	}
	result.Train = raw.Subset(indices[:nTrain])
	result.Test = raw.Subset(indices[nTrain:])

	if err := result.Train.WriteCSVFile(result.TrainPath); err != nil {
		return nil, errors.NewStageError(errors.StageIngestion, "write train split", err)
	}
	if err := result.Test.WriteCSVFile(result.TestPath); err != nil {
		return nil, errors.NewStageError(errors.StageIngestion, "write test split", err)
	}

	in.logger.Info("dataset ingested",
		log.SamplesKey, n,
		"train_rows", result.Train.NumRows(),
		"test_rows", result.Test.NumRows(),
		"train_ratio", in.cfg.TrainRatio,
		log.DurationMsKey, time.Since(start).Milliseconds())
	return result, nil
}
