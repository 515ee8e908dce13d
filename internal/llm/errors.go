package llm

import (
	"errors"
	"fmt"
)

// EstimationError is returned when the cost estimate could not be produced.
type EstimationError struct {
	Reason string
	Err    error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("estimation failed: %s", e.Reason)
}

func (e *EstimationError) Unwrap() error {
	return e.Err
}

// VisualizationError is returned when the renovation render could not be produced.
type VisualizationError struct {
	Reason string
	Err    error
}

func (e *VisualizationError) Error() string {
	return fmt.Sprintf("visualization failed: %s", e.Reason)
}

func (e *VisualizationError) Unwrap() error {
	return e.Err
}

// Reason returns the human-readable reason carried by a service error, or
// the error text for anything else.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var estErr *EstimationError
	if errors.As(err, &estErr) {
		return estErr.Reason
	}
	var visErr *VisualizationError
	if errors.As(err, &visErr) {
		return visErr.Reason
	}
	return err.Error()
}
