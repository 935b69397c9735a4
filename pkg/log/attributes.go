package log

// Standard attribute keys. Using the same keys everywhere keeps the run
// logs filterable when stages are compared across pipeline executions.
const (
	// ComponentKey identifies the component emitting the log line.
	ComponentKey = "component"

	// StageKey identifies the pipeline stage ("ingestion", "preprocessing", "training").
	StageKey = "pipeline.stage"

	// RunIDKey carries the experiment run identifier.
	RunIDKey = "run.id"

	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"

	// DurationMsKey is elapsed wall time in milliseconds.
	DurationMsKey = "duration_ms"

	// MetricKey names an evaluation metric attribute group.
	MetricKey = "metric"

	// ErrKey carries an error value.
	ErrKey = "error"
)
