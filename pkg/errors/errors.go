package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

/*
Kind classifies a failure so the HTTP boundary can pick a status code and the
pipeline can report why a stage failed.
*/
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindModelInvocation   Kind = "ModelInvocationError"
	KindModelTimeout      Kind = "ModelTimeout"
	KindUnparsableOutput  Kind = "UnparsableOutput"
	KindSchemaMismatch    Kind = "SchemaMismatch"
	KindMissingDependency Kind = "MissingDependency"
	KindPersistence       Kind = "PersistenceError"
	KindRateLimited       Kind = "RateLimited"
)

/*
parents records which kinds are refinements of a broader kind, so that a
ModelTimeout still matches ErrModelInvocation with errors.Is.
*/
var parents = map[Kind]Kind{
	KindModelTimeout:   KindModelInvocation,
	KindSchemaMismatch: KindUnparsableOutput,
}

/*
Error is the single error type used across the service. Message is what a
caller gets to see, Err is the underlying cause, if any.
*/
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrModelInvocation   = &Error{Kind: KindModelInvocation, Message: "model invocation failed"}
	ErrModelTimeout      = &Error{Kind: KindModelTimeout, Message: "model call timed out"}
	ErrUnparsableOutput  = &Error{Kind: KindUnparsableOutput, Message: "model output could not be parsed"}
	ErrSchemaMismatch    = &Error{Kind: KindSchemaMismatch, Message: "model output does not match the expected schema"}
	ErrMissingDependency = &Error{Kind: KindMissingDependency, Message: "prompt references a missing upstream output"}
	ErrPersistence       = &Error{Kind: KindPersistence, Message: "failed to persist record"}
	ErrRateLimited       = &Error{Kind: KindRateLimited, Message: "Too many requests."}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

/*
Is matches on kind rather than identity, so copies produced by WithMessagef
and Wrap still compare equal to the package level sentinels.
*/
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	for kind := e.Kind; kind != ""; kind = parents[kind] {
		if kind == t.Kind {
			return true
		}
	}

	return false
}

/*
WithMessagef creates a *copy* of an Error with a formatted message.
It does not modify the original error variable.
*/
func (e *Error) WithMessagef(format string, args ...any) *Error {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

/*
Wrap creates a copy of an Error carrying cause as its underlying error.
*/
func (e *Error) Wrap(cause error) *Error {
	newErr := *e
	newErr.Err = cause
	return &newErr
}

/*
StageError reports which pipeline stage aborted a run.
*/
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %s: %v", e.Stage, KindOf(e.Err), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

/*
KindOf returns the kind of the first *Error in err's chain, or
ModelInvocationError for anything unclassified.
*/
func KindOf(err error) Kind {
	var e *Error

	if stderrors.As(err, &e) {
		return e.Kind
	}

	return KindModelInvocation
}

/*
StatusCode maps an error onto the HTTP status the service answers with.
*/
func StatusCode(err error) int {
	var e *Error

	if !stderrors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Is and As are re-exported so callers do not need both errors packages.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
