// Package errors provides structured error handling for the cancellation
// prediction pipeline. Every stage wraps underlying failures with typed
// errors carrying the stage name and the relevant parameter, so that the
// orchestrator can surface the first failure with full context.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Stage identifies a pipeline stage in error context.
type Stage string

const (
	StageIngestion     Stage = "ingestion"
	StagePreprocessing Stage = "preprocessing"
	StageTraining      Stage = "training"
	StageInference     Stage = "inference"
)

// StageError wraps an underlying failure with the pipeline stage and the
// operation that failed. The orchestrator does not catch these; it surfaces
// the first one and halts.
type StageError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cancelcast: %s: %s: %v", e.Stage, e.Op, e.Err)
	}
	return fmt.Sprintf("cancelcast: %s: %s", e.Stage, e.Op)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured stage-error fields to a log event.
func (e *StageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", string(e.Stage)).
		Str("operation", e.Op).
		Str("type", "StageError")
	if e.Err != nil {
		event.AnErr("cause", e.Err)
	}
}

// NewStageError creates a StageError and attaches a stack trace.
func NewStageError(stage Stage, op string, err error) error {
	return errors.WithStack(&StageError{Stage: stage, Op: op, Err: err})
}

// NotFittedError is returned when Predict or Transform is called on an
// estimator that has not been fitted.
type NotFittedError struct {
	EstimatorName string
	Method        string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("cancelcast: %s: estimator is not fitted yet. Call Fit() before using %s()", e.EstimatorName, e.Method)
}

// MarshalZerologObject adds structured fields to a log event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("estimator", e.EstimatorName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(estimator, method string) error {
	return errors.WithStack(&NotFittedError{EstimatorName: estimator, Method: method})
}

// DimensionError reports a mismatch between expected and actual data
// dimensions. Axis 0 is rows, axis 1 is columns/features.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("cancelcast: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured fields to a log event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError reports an invalid argument value, such as a train ratio
// outside (0, 1) or a feature count larger than the available columns.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("cancelcast: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// SchemaError reports a column missing from or unexpected in a dataset.
type SchemaError struct {
	Op     string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cancelcast: %s: column %q: %s", e.Op, e.Column, e.Reason)
}

// MarshalZerologObject adds structured fields to a log event.
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "SchemaError")
}

// NewSchemaError creates a SchemaError with a stack trace.
func NewSchemaError(op, column, reason string) error {
	return errors.WithStack(&SchemaError{Op: op, Column: column, Reason: reason})
}

// ArtifactError reports a missing or corrupt persisted artifact, such as the
// model file or the encoder map the inference service loads at startup.
type ArtifactError struct {
	Path string
	Op   string
	Err  error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cancelcast: %s: artifact %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("cancelcast: %s: artifact %q", e.Op, e.Path)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured fields to a log event.
func (e *ArtifactError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("artifact", e.Path).
		Str("type", "ArtifactError")
	if e.Err != nil {
		event.AnErr("cause", e.Err)
	}
}

// NewArtifactError creates an ArtifactError with a stack trace.
func NewArtifactError(op, path string, err error) error {
	return errors.WithStack(&ArtifactError{Op: op, Path: path, Err: err})
}

// Common error variables.
var (
	// ErrEmptyData is returned when a stage receives an empty dataset.
	ErrEmptyData = New("empty data")

	// ErrEmptyGrid is returned when the hyperparameter search space is empty.
	ErrEmptyGrid = New("empty hyperparameter grid")
)

// cockroachdb/errors passthroughs. Keeping them behind this package lets the
// rest of the codebase import a single errors package.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}
