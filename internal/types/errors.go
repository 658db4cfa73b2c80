package types

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageClassify   Stage = "classify"
	StageSelect     Stage = "select"
	StageExtract    Stage = "extract"
	StageAssemble   Stage = "assemble"

	// StageRun marks failures raised outside any single stage, such as a
	// panic caught by the worker pool.
	StageRun Stage = "run"
)

type ErrorKind string

const (
	KindAdapterFailure  ErrorKind = "AdapterFailure"
	KindInvalidBudget   ErrorKind = "InvalidBudget"
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindEmptyPlan       ErrorKind = "EmptyPlan"
	KindEncodeFailure   ErrorKind = "EncodeFailure"
	KindAssemblyFailure ErrorKind = "AssemblyFailure"
	KindCanceled        ErrorKind = "Canceled"
	KindInternal        ErrorKind = "Internal"
)

var (
	ErrInvalidBudget = errors.New("target duration must be > 0")
	ErrEmptyPlan     = errors.New("cut plan is empty")
)

// StageError is the error form of a Failure. SegmentIndex is -1 unless Kind
// is KindEncodeFailure.
type StageError struct {
	Stage        Stage
	Kind         ErrorKind
	SegmentIndex int
	Err          error
}

func (e *StageError) Error() string {
	if e.Kind == KindEncodeFailure && e.SegmentIndex >= 0 {
		return fmt.Sprintf("%s: %s (segment %d): %v", e.Stage, e.Kind, e.SegmentIndex, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func NewStageError(stage Stage, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, SegmentIndex: -1, Err: err}
}

func EncodeFailure(segmentIndex int, cause error) *StageError {
	return &StageError{Stage: StageExtract, Kind: KindEncodeFailure, SegmentIndex: segmentIndex, Err: cause}
}

// FailureOf converts any error into a Failure. Errors that are not a
// *StageError are attributed to fallback.
func FailureOf(err error, fallback Stage, kind ErrorKind) *Failure {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return &Failure{Stage: se.Stage, Kind: se.Kind, Message: se.Error()}
	}
	return &Failure{Stage: fallback, Kind: kind, Message: err.Error()}
}
