package job

import (
	"fmt"
	"time"

	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/photo"
)

// Status is the lifecycle stage of an estimate job.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

// String returns a human-readable name for the Status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// State is a snapshot of a job. Estimate and Rendered are set only when
// Completed; Err only when Failed.
type State struct {
	Status    Status
	Image     photo.Handle
	Estimate  *llm.Estimate
	Rendered  photo.Handle
	Err       error
	StartedAt time.Time
	SettledAt time.Time
}

// Settled reports whether the job reached a terminal status.
func (s State) Settled() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// canTransition enforces Idle -> Processing -> {Completed|Failed}.
func canTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}
