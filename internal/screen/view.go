// Package screen turns navigation and job state into display descriptions.
// Rendering is pure: nothing here mutates navigation or starts jobs.
package screen

import (
	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/nav"
	"github.com/raine/contractor-pro/internal/photo"
)

// ActionID names something the user can do from a view.
type ActionID string

const (
	ActionNewEstimate ActionID = "new_estimate"
	ActionCapture     ActionID = "capture"
	ActionDashboard   ActionID = "dashboard"
	ActionOpenDetail  ActionID = "open_detail"
	ActionCloseDetail ActionID = "close_detail"
	ActionRetry       ActionID = "retry"
)

// Action is a button offered by a view.
type Action struct {
	ID    ActionID
	Label string
}

// DashboardJob is one row of the dashboard job list.
type DashboardJob struct {
	ID     string
	Client string
	Type   string
	Status string
	Price  llm.Money
}

// Input is everything a screen needs to render.
type Input struct {
	Entry      nav.Entry
	Job        *job.State
	DetailOpen bool
	CaptureErr error
	Jobs       []DashboardJob
}

// View describes what to show. Front ends decide how.
type View struct {
	Screen nav.ScreenID
	Title  string
	Lines  []string

	Loading     bool
	LoadingText []string

	// Image is the original site photo, Rendered the renovation preview.
	Image      photo.Handle
	Rendered   photo.Handle
	ImageLabel string
	Estimate   *llm.Estimate
	DetailOpen bool

	Error   string
	Actions []Action
	Jobs    []DashboardJob
}

// HasAction reports whether the view offers id.
func (v View) HasAction(id ActionID) bool {
	for _, a := range v.Actions {
		if a.ID == id {
			return true
		}
	}
	return false
}
