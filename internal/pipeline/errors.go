package pipeline

import (
	"context"
	"errors"
	"fmt"

	"dualsub/internal/models"
	"dualsub/internal/services"
)

// Stage names in execution order.
const (
	StageExtract    = "extract"
	StageSegment    = "segment"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageAssemble   = "assemble"
	StageWrite      = "write"
)

// Stages lists every stage in the order a run executes them.
var Stages = []string{StageExtract, StageSegment, StageTranscribe, StageTranslate, StageAssemble, StageWrite}

// KindCanceled is reported for runs stopped by context cancellation or the
// run timeout.
const KindCanceled = "Canceled"

// StageError is the single error type Run returns for a failed stage.
type StageError struct {
	Stage string
	// Kind is the failure taxonomy name (TranscriptionError, IOError, ...),
	// KindCanceled, or empty for unclassified failures.
	Kind string
	Err  error
}

func (e *StageError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage string, err error) *StageError {
	var existing *StageError
	if errors.As(err, &existing) {
		return existing
	}
	kind := services.KindOf(err)
	if kind == "" && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		kind = KindCanceled
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// modelUnavailable maps a cache load failure without its own taxonomy kind
// onto a missing resource.
func modelUnavailable(key models.Key, err error) error {
	if services.KindOf(err) != "" || !errors.Is(err, models.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", &services.MissingResourceError{Resource: "model " + key.String(), Language: key.Source}, err)
}
