package models

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound = status.Errorf(codes.NotFound, "not found")

	// ErrRegionNotServed is the soft outcome of a region lookup for a
	// postal code outside every seller's coverage. Callers fall back to
	// the default seller instead of failing the request.
	ErrRegionNotServed = status.Errorf(codes.FailedPrecondition, "region not served")
)

// ServiceError is a fatal failure of the commerce backend or the stock
// backing service. It aborts the whole search request.
type ServiceError struct {
	Stage string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewServiceError(stage string, err error) *ServiceError {
	return &ServiceError{Stage: stage, Err: err}
}

// ValidationError rejects malformed caller input before the pipeline runs.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}
