// Package config loads the pipeline and service configuration from three
// layers: built-in defaults, an optional YAML file, and CANCELCAST_*
// environment variables. Later layers override earlier ones.
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/pkg/errors"
)

const envPrefix = "CANCELCAST_"

// StorageConfig locates the raw dataset. Either a GCS bucket/object pair or
// a local source path for runs without object storage.
type StorageConfig struct {
	Bucket          string `koanf:"bucket"`
	Object          string `koanf:"object"`
	CredentialsFile string `koanf:"credentials_file"`
	LocalPath       string `koanf:"local_path"`
}

// IngestConfig drives the split stage.
type IngestConfig struct {
	TrainRatio float64 `koanf:"train_ratio" validate:"gt=0,lt=1"`
	Seed       int64   `koanf:"seed"`
}

// PreprocessConfig drives encoding, skew correction, oversampling and
// feature selection.
type PreprocessConfig struct {
	LabelColumn        string   `koanf:"label_column" validate:"required"`
	CategoricalColumns []string `koanf:"categorical_columns"`
	NumericColumns     []string `koanf:"numeric_columns"`
	SkewThreshold      float64  `koanf:"skew_threshold" validate:"gte=0"`
	FeatureCount       int      `koanf:"feature_count" validate:"gte=1"`
	SMOTENeighbors     int      `koanf:"smote_neighbors" validate:"gte=1"`
	Seed               int64    `koanf:"seed"`
}

// TrainConfig drives hyperparameter search and final training.
type TrainConfig struct {
	Grid             boost.Grid `koanf:"grid"`
	SearchIterations int        `koanf:"search_iterations" validate:"gte=1"`
	CVFolds          int        `koanf:"cv_folds" validate:"gte=2"`
	Scoring          string     `koanf:"scoring"`
	Seed             int64      `koanf:"seed"`
}

// ServerConfig drives the inference HTTP service.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Config is the full configuration tree.
type Config struct {
	Storage    StorageConfig    `koanf:"storage"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Preprocess PreprocessConfig `koanf:"preprocess"`
	Train      TrainConfig      `koanf:"train"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`

	ArtifactsDir string `koanf:"artifacts_dir" validate:"required"`
	TrackingDir  string `koanf:"tracking_dir" validate:"required"`
}

// Default returns the built-in configuration. Seeds are fixed so reruns are
// reproducible unless overridden.
func Default() Config {
	return Config{
		Storage: StorageConfig{},
		Ingest: IngestConfig{
			TrainRatio: 0.8,
			Seed:       42,
		},
		Preprocess: PreprocessConfig{
			LabelColumn: "booking_status",
			CategoricalColumns: []string{
				"type_of_meal_plan",
				"room_type_reserved",
				"market_segment_type",
			},
			NumericColumns: []string{
				"lead_time",
				"avg_price_per_room",
				"no_of_week_nights",
				"no_of_weekend_nights",
			},
			SkewThreshold:  0.5,
			FeatureCount:   10,
			SMOTENeighbors: 5,
			Seed:           42,
		},
		Train: TrainConfig{
			Grid: boost.Grid{
				NumIterations:   []int{100, 200, 300},
				LearningRate:    []float64{0.01, 0.05, 0.1},
				NumLeaves:       []int{15, 31, 63},
				MaxDepth:        []int{3, 5, 8},
				MinChildSamples: []int{10, 20, 40},
			},
			SearchIterations: 10,
			CVFolds:          5,
			Scoring:          "f1",
			Seed:             42,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging:      LoggingConfig{Level: "info"},
		ArtifactsDir: "artifacts",
		TrackingDir:  "artifacts/experiments",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, then validates it. An empty path skips the file
// layer; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "config: defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.NewArtifactError("config.Load", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "config: environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CANCELCAST_SERVER__PORT to server.port: double underscores
// separate nesting levels, single underscores stay inside key names.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks field constraints and cross-field consistency.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return errors.Wrap(err, "config: validation")
	}
	if cfg.Storage.LocalPath == "" && (cfg.Storage.Bucket == "" || cfg.Storage.Object == "") {
		return errors.NewValueError("config.Validate",
			"either storage.local_path or storage.bucket+storage.object must be set")
	}
	if _, err := boost.ParseScoring(cfg.Train.Scoring); err != nil {
		return err
	}
	return nil
}
