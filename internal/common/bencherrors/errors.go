// Package bencherrors contains generic errors returned by the benchmark harness.
// The command layer looks for the error types defined in this file (using errors.As)
// to decide whether a failure is a configuration problem, a caller bug, or a
// measurement failure that has already been recorded as data.
//
// If multiple errors occur in some function (e.g., if several fields of a benchmark
// spec are invalid), that function should return an error of type multierror.Error
// from package github.com/hashicorp/go-multierror that encapsulates those
// individual errors.
package bencherrors

import (
	"fmt"
)

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "requestCount"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrAlreadyFinalized is returned when a result is recorded into an aggregator
// after its report has been finalized. It indicates a bug in the caller, not a
// measurement failure, and aborts the suite.
type ErrAlreadyFinalized struct {
	Report  string // Name of the finalized report
	Message string // An optional message to include with the error message
}

func (err *ErrAlreadyFinalized) Error() (s string) {
	if err.Report != "" {
		s = fmt.Sprintf("benchmark report %q is already finalized", err.Report)
	} else {
		s = "benchmark report is already finalized"
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}
