// Package svcerr defines the typed error taxonomy shared by the dispatcher,
// evaluator, and audit ingester.
package svcerr

import (
	"errors"
	"fmt"
)

// Code identifies the category of a Error.
type Code string

const (
	// CodeConfiguration marks a misconfigured invocation payload or fleet
	// descriptor: missing credentials, malformed override keys, and similar.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeUpstreamUnreachable marks a cluster API call that could not be
	// completed (connect failure, read failure, non-200 response, exhausted
	// pagination retry budget).
	CodeUpstreamUnreachable Code = "UPSTREAM_UNREACHABLE"
	// CodeTransientSink marks a failure delivering an alert or audit batch to
	// a sink (SNS, CloudWatch Logs, webhook) that may succeed on a later run.
	CodeTransientSink Code = "TRANSIENT_SINK"
	// CodeStateBlobParse marks a state blob that exists but could not be
	// decoded; distinct from a missing blob, which is not an error.
	CodeStateBlobParse Code = "STATE_BLOB_PARSE"
	// CodeInternal marks a programming invariant violation.
	CodeInternal Code = "INTERNAL"
)

// Error is the typed error returned by every component in this module.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is / errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a Error around an existing error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Configuration wraps a configuration failure.
func Configuration(message string, err error) *Error {
	return Wrap(CodeConfiguration, message, err)
}

// UpstreamUnreachable wraps a cluster API failure.
func UpstreamUnreachable(message string, err error) *Error {
	return Wrap(CodeUpstreamUnreachable, message, err)
}

// TransientSink wraps an alert/audit sink delivery failure.
func TransientSink(message string, err error) *Error {
	return Wrap(CodeTransientSink, message, err)
}

// StateBlobParse wraps a state blob decode failure.
func StateBlobParse(message string, err error) *Error {
	return Wrap(CodeStateBlobParse, message, err)
}

// Internal wraps a programming invariant violation.
func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// Is reports whether err is a Error with the given code.
func Is(err error, code Code) bool {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code == code
	}
	return false
}

// CodeOf extracts the Code of err, returning CodeInternal if err is not a
// Error.
func CodeOf(err error) Code {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeInternal
}
