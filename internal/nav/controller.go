// Package nav holds the navigation state of the app: which screen is shown
// and with what parameters.
package nav

import (
	"fmt"
	"sync"

	"github.com/raine/contractor-pro/internal/photo"
)

// ScreenID identifies one of the app's screens.
type ScreenID int

const (
	Dashboard ScreenID = iota
	Capture
	Estimate
)

func (s ScreenID) String() string {
	switch s {
	case Dashboard:
		return "Dashboard"
	case Capture:
		return "Capture"
	case Estimate:
		return "Estimate"
	default:
		return fmt.Sprintf("Screen(%d)", s)
	}
}

// Params is the payload passed to a screen on navigation.
type Params interface {
	isParams()
}

type DashboardParams struct{}

type CaptureParams struct{}

// EstimateParams carries the photo the Estimate screen works on.
type EstimateParams struct {
	Image photo.Handle
}

func (DashboardParams) isParams() {}
func (CaptureParams) isParams()   {}
func (EstimateParams) isParams()  {}

// Entry is the current screen together with its params.
type Entry struct {
	Screen ScreenID
	Params Params
}

// Listener is notified after every navigation.
type Listener func(prev, next Entry)

// Controller tracks the current Entry. There is no history stack.
type Controller struct {
	mu        sync.Mutex
	current   Entry
	listeners []Listener
}

// New returns a Controller positioned on the Dashboard.
func New() *Controller {
	return &Controller{
		current: Entry{Screen: Dashboard, Params: DashboardParams{}},
	}
}

// Current returns the current entry.
func (c *Controller) Current() Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Navigate replaces the current entry and then calls every listener in
// subscription order. Params are not checked against the screen.
func (c *Controller) Navigate(screen ScreenID, params Params) {
	next := Entry{Screen: screen, Params: params}

	c.mu.Lock()
	prev := c.current
	c.current = next
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
}

// Subscribe registers l for navigation notifications.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// EstimateImage extracts the photo from an Estimate entry. ok is false when
// the entry is not an Estimate entry or carries no usable photo.
func EstimateImage(e Entry) (img photo.Handle, ok bool) {
	if e.Screen != Estimate {
		return photo.Handle{}, false
	}
	var p EstimateParams
	switch v := e.Params.(type) {
	case EstimateParams:
		p = v
	case *EstimateParams:
		if v == nil {
			return photo.Handle{}, false
		}
		p = *v
	default:
		return photo.Handle{}, false
	}
	if p.Image.IsZero() {
		return photo.Handle{}, false
	}
	return p.Image, true
}
