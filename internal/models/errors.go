package models

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when no verses are given or none of the given
// refs resolve to any text. It is raised before any embedding work happens.
var ErrEmptyQuery = errors.New("search_verses resolved to no text")

// ValidationError reports a bad request parameter and the field it came from
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvalidRecordLevelError reports an unknown record level along with the
// levels the compatibility matrix knows about
type InvalidRecordLevelError struct {
	RecordLevel RecordLevel
	ValidLevels []RecordLevel
}

func (e *InvalidRecordLevelError) Error() string {
	return fmt.Sprintf("invalid record_level: %s. Must be one of: %v", e.RecordLevel, e.ValidLevels)
}

// IncompatibleModelError reports a (model, record level) pair the
// compatibility matrix does not permit, naming the valid alternatives
type IncompatibleModelError struct {
	ModelName   ModelName
	RecordLevel RecordLevel
	ValidModels []ModelName
}

func (e *IncompatibleModelError) Error() string {
	return fmt.Sprintf(
		"invalid combination: model_name '%s' cannot be used with record_level '%s'. Valid models for %s: %v",
		e.ModelName, e.RecordLevel, e.RecordLevel, e.ValidModels,
	)
}

// EmbeddingUnavailableError wraps a transient embedding-provider failure
// that persisted through the single retry
type EmbeddingUnavailableError struct {
	Model ModelName
	Err   error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding unavailable for model %s: %v", e.Model, e.Err)
}

func (e *EmbeddingUnavailableError) Unwrap() error { return e.Err }

// BackendUnavailableError wraps a vector backend failure. The repository
// does not retry; the search service may fall back to the alternate backend.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("vector backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// IsValidationError reports whether err should surface as a 400 to the caller
func IsValidationError(err error) bool {
	var (
		ve  *ValidationError
		rle *InvalidRecordLevelError
		ime *IncompatibleModelError
	)
	return errors.Is(err, ErrEmptyQuery) ||
		errors.As(err, &ve) ||
		errors.As(err, &rle) ||
		errors.As(err, &ime)
}
