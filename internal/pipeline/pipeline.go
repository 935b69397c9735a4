// Package pipeline orchestrates the batch flow: ingestion, preprocessing and
// training run strictly in order, and the first failing stage aborts the
// run. A rerun overwrites every artifact of the previous run.
package pipeline

import (
	"context"
	"time"

	"github.com/staysense/cancelcast/internal/config"
	"github.com/staysense/cancelcast/internal/ingest"
	"github.com/staysense/cancelcast/internal/preprocess"
	"github.com/staysense/cancelcast/internal/tracking"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Summary is the outcome of one full pipeline run.
type Summary struct {
	Ingest     *ingest.Result
	Preprocess *preprocess.Result
	Train      *TrainResult
	Stages     []StageResult
}

// StageResult records how long one completed stage took.
type StageResult struct {
	Name     string
	Duration time.Duration
}

// Pipeline wires the three stages from one configuration.
type Pipeline struct {
	cfg     *config.Config
	fetcher ingest.ObjectFetcher
	logger  log.Logger
}

// New builds a pipeline; the fetcher comes from the storage configuration.
// A local path wins over a bucket so local runs need no cloud credentials.
func New(cfg *config.Config) *Pipeline {
	var fetcher ingest.ObjectFetcher
	if cfg.Storage.LocalPath != "" {
		fetcher = &ingest.FileFetcher{Path: cfg.Storage.LocalPath}
	} else {
		fetcher = ingest.NewGCSFetcher(cfg.Storage.Bucket, cfg.Storage.Object, cfg.Storage.CredentialsFile)
	}
	return NewWithFetcher(cfg, fetcher)
}

// NewWithFetcher builds a pipeline with an explicit fetcher.
func NewWithFetcher(cfg *config.Config, fetcher ingest.ObjectFetcher) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: fetcher, logger: log.GetLoggerWithName("pipeline")}
}

// runStage executes one stage, logging its duration and appending it to the
// summary on success.
func runStage[T any](ctx context.Context, p *Pipeline, summary *Summary, name string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	p.logger.Info("stage started", log.StageKey, name)

	out, err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		p.logger.Error("stage failed",
			log.StageKey, name,
			log.ErrKey, err,
			log.DurationMsKey, elapsed.Milliseconds())
		return out, err
	}

	summary.Stages = append(summary.Stages, StageResult{Name: name, Duration: elapsed})
	p.logger.Info("stage finished",
		log.StageKey, name,
		log.DurationMsKey, elapsed.Milliseconds())
	return out, nil
}

// Run executes the full pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	ingested, err := runStage(ctx, p, summary, "ingestion", func(ctx context.Context) (*ingest.Result, error) {
		return ingest.New(ingest.Config{
			TrainRatio:   p.cfg.Ingest.TrainRatio,
			Seed:         p.cfg.Ingest.Seed,
			ArtifactsDir: p.cfg.ArtifactsDir,
		}, p.fetcher).Run(ctx)
	})
	if err != nil {
		return nil, err
	}
	summary.Ingest = ingested

	processed, err := runStage(ctx, p, summary, "preprocessing", func(ctx context.Context) (*preprocess.Result, error) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewStageError(errors.StagePreprocessing, "Run", err)
		}
		return preprocess.New(preprocess.Config{
			LabelColumn:        p.cfg.Preprocess.LabelColumn,
			CategoricalColumns: p.cfg.Preprocess.CategoricalColumns,
			NumericColumns:     p.cfg.Preprocess.NumericColumns,
			SkewThreshold:      p.cfg.Preprocess.SkewThreshold,
			FeatureCount:       p.cfg.Preprocess.FeatureCount,
			SMOTENeighbors:     p.cfg.Preprocess.SMOTENeighbors,
			Seed:               p.cfg.Preprocess.Seed,
			ArtifactsDir:       p.cfg.ArtifactsDir,
		}).Run(ingested.Train, ingested.Test)
	})
	if err != nil {
		return nil, err
	}
	summary.Preprocess = processed

	trained, err := runStage(ctx, p, summary, "training", func(ctx context.Context) (*TrainResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewStageError(errors.StageTraining, "Run", err)
		}
		return p.train(processed)
	})
	if err != nil {
		return nil, err
	}
	summary.Train = trained

	if err := tracking.New(p.cfg.TrackingDir).Record(trained.Run); err != nil {
		return nil, errors.NewStageError(errors.StageTraining, "record run", err)
	}

	return summary, nil
}
