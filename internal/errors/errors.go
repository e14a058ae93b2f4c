// Package errors provides structured error types for the export pipeline
// with categorization matching how each failure is handled: transport and
// delivery failures degrade the cycle, missing mandatory data abandons it.
package errors

import (
	"fmt"
)

// Category represents the failure category of a pipeline error.
type Category int

const (
	// CategoryUnknown represents an uncategorized error.
	CategoryUnknown Category = iota
	// CategoryTransport represents control-channel failures (dial, timeout,
	// malformed response). The affected counter family degrades to empty.
	CategoryTransport
	// CategoryMissingData represents a mandatory counter group absent from
	// the merged tree. The cycle's batch is abandoned.
	CategoryMissingData
	// CategoryDelivery represents a failed write to the time-series
	// endpoint. The cycle's records are lost; no retry.
	CategoryDelivery
	// CategoryMalformed represents unexpected counter data shape, such as
	// colliding counter families. Treated as a configuration mismatch.
	CategoryMalformed
)

// String returns a short name for the category, used in log attributes.
func (c Category) String() string {
	switch c {
	case CategoryTransport:
		return "transport"
	case CategoryMissingData:
		return "missing-data"
	case CategoryDelivery:
		return "delivery"
	case CategoryMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// PipelineError is an error with a failure category and the component and
// operation it originated from.
type PipelineError struct {
	Category  Category
	Component string
	Op        string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Component, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", e.Component, e.Op, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches errors by category, so callers can test with errors.Is against
// one of the sentinel values below.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Category == t.Category
}

// Sentinel values for errors.Is matching by category.
var (
	ErrTransport   = &PipelineError{Category: CategoryTransport}
	ErrMissingData = &PipelineError{Category: CategoryMissingData}
	ErrDelivery    = &PipelineError{Category: CategoryDelivery}
	ErrMalformed   = &PipelineError{Category: CategoryMalformed}
)

// Transport builds a transport-category error.
func Transport(component, op string, cause error) *PipelineError {
	return &PipelineError{
		Category:  CategoryTransport,
		Component: component,
		Op:        op,
		Message:   "control channel failure",
		Cause:     cause,
	}
}

// MissingData builds a missing-mandatory-data error.
func MissingData(component, op, message string) *PipelineError {
	return &PipelineError{
		Category:  CategoryMissingData,
		Component: component,
		Op:        op,
		Message:   message,
	}
}

// Delivery builds a delivery-category error.
func Delivery(component, op string, cause error) *PipelineError {
	return &PipelineError{
		Category:  CategoryDelivery,
		Component: component,
		Op:        op,
		Message:   "write failed",
		Cause:     cause,
	}
}

// Malformed builds a malformed-data error.
func Malformed(component, op, message string) *PipelineError {
	return &PipelineError{
		Category:  CategoryMalformed,
		Component: component,
		Op:        op,
		Message:   message,
	}
}
