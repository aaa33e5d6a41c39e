package services

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull is returned by Start when the configured number of queued scans is reached
	ErrQueueFull = errors.New("scan queue is full")
	// ErrAlreadyRegistered is returned when a live handle already exists for a scan id
	ErrAlreadyRegistered = errors.New("scan is already registered")
	// ErrShuttingDown is returned by Start after Shutdown was called
	ErrShuttingDown = errors.New("orchestrator is shutting down")
)

// ValidationError reports a malformed scan parameter. No scan is created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown scan or lead id
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsValidationError reports whether err is or wraps a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
