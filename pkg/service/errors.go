package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrModelByIDUnsupported is returned when a semantic request carries
// only a cad_model_id. Resolving stored models is an API-surface
// placeholder; the live model is required for now.
var ErrModelByIDUnsupported = errors.New("semanticize by cad_model_id is not yet supported; pass the live model")

// ValidationError reports a bad request parameter. It is detected
// before any parsing work begins and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// TimeoutError reports that parse+heal exceeded the request's
// wall-clock budget. The result is discarded, not partially returned.
type TimeoutError struct {
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ingest exceeded timeout: %s elapsed, %s allowed", e.Elapsed, e.Budget)
}

// ArtifactShapeError reports that artifact metadata would violate the
// external media schema (required fields empty). It guards against the
// core's own logic drifting, not against user input.
type ArtifactShapeError struct {
	Missing []string
}

func (e *ArtifactShapeError) Error() string {
	return "artifact metadata has empty required fields: " + strings.Join(e.Missing, ", ")
}
