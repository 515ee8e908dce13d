// Package app wires navigation, jobs and screens into one interactive
// session that front ends drive with events.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/nav"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/screen"
	"github.com/rs/zerolog/log"
)

// EventKind identifies what happened.
type EventKind string

const (
	EventNewEstimate EventKind = EventKind(screen.ActionNewEstimate)
	EventCapture     EventKind = EventKind(screen.ActionCapture)
	EventDashboard   EventKind = EventKind(screen.ActionDashboard)
	EventOpenDetail  EventKind = EventKind(screen.ActionOpenDetail)
	EventCloseDetail EventKind = EventKind(screen.ActionCloseDetail)
	EventRetry       EventKind = EventKind(screen.ActionRetry)
	EventPhoto       EventKind = "photo"
	EventJobSettled  EventKind = "job_settled"
	EventRefresh     EventKind = "refresh"
)

// EventFor maps a view action to the event that performs it.
func EventFor(action screen.ActionID) Event {
	return Event{Kind: EventKind(action)}
}

// Event is processed by the session worker.
type Event struct {
	Kind EventKind

	// Image is an already captured photo for EventCapture and EventPhoto.
	// When empty on EventCapture the session's capture device is used.
	Image photo.Handle

	// Job is the handle that settled, for EventJobSettled.
	Job *job.Handle

	Done chan struct{} // Closed when processing is complete (for synchronous dispatch)
}

// Presenter receives every view the session renders.
type Presenter interface {
	Present(v screen.View)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(v screen.View)

func (f PresenterFunc) Present(v screen.View) { f(v) }

// Session owns the navigation controller and the current job.
//
// Threading model:
//   - A dedicated worker goroutine processes events sequentially
//   - Navigation, job start/cancel and rendering happen only on the worker
//   - Job completion is posted back to the inbox as EventJobSettled
//   - View and Entry are safe to call from any goroutine
type Session struct {
	nav       *nav.Controller
	processor *job.Processor
	device    photo.Device
	presenter Presenter
	jobs      []screen.DashboardJob

	inbox   chan Event
	stopped chan struct{} // closed when the worker exits
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Worker-owned state
	current    *job.Handle
	detailOpen bool
	captureErr error

	mu       sync.Mutex
	lastView screen.View
}

// NewSession creates a session. Call Start to run its worker.
// jobs is the dashboard list; nil uses screen.SampleJobs.
func NewSession(ctx context.Context, processor *job.Processor, device photo.Device, presenter Presenter, jobs []screen.DashboardJob) *Session {
	ctx, cancel := context.WithCancel(ctx)
	if presenter == nil {
		presenter = PresenterFunc(func(screen.View) {})
	}
	s := &Session{
		nav:       nav.New(),
		processor: processor,
		device:    device,
		presenter: presenter,
		jobs:      jobs,
		inbox:     make(chan Event, 16),
		stopped:   make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.nav.Subscribe(s.onNavigate)
	return s
}

// Start runs the worker and renders the initial view.
func (s *Session) Start() {
	s.wg.Add(1)
	go s.runWorker()
	s.Send(Event{Kind: EventRefresh})
}

func (s *Session) runWorker() {
	defer s.wg.Done()
	defer close(s.stopped)

	for {
		select {
		case <-s.ctx.Done():
			for {
				select {
				case ev := <-s.inbox:
					if ev.Done != nil {
						close(ev.Done)
					}
				default:
					return
				}
			}
		case ev := <-s.inbox:
			s.process(ev)
		}
	}
}

func (s *Session) process(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event", string(ev.Kind)).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
		if ev.Done != nil {
			close(ev.Done)
		}
	}()

	if !s.handle(ev) {
		return
	}
	s.present()
}

// Send queues an event for the worker without waiting. Events sent after
// Stop are dropped.
func (s *Session) Send(ev Event) {
	if s.ctx.Err() != nil {
		return
	}
	select {
	case s.inbox <- ev:
	case <-s.ctx.Done():
	}
}

// SendSync queues an event and waits until the worker has processed it or
// the session has stopped.
func (s *Session) SendSync(ev Event) {
	ev.Done = make(chan struct{})
	s.Send(ev)
	select {
	case <-ev.Done:
	case <-s.stopped:
	}
}

// Stop cancels any running job and waits for the worker to exit.
func (s *Session) Stop() {
	s.cancel()
	s.wg.Wait()
}

// View returns the most recently rendered view.
func (s *Session) View() screen.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastView
}

// Entry returns the current navigation entry.
func (s *Session) Entry() nav.Entry {
	return s.nav.Current()
}

// handle applies ev and reports whether the view should be re-rendered.
func (s *Session) handle(ev Event) bool {
	entry := s.nav.Current()

	switch ev.Kind {
	case EventRefresh:
		return true

	case EventNewEstimate:
		s.nav.Navigate(nav.Capture, nav.CaptureParams{})

	case EventDashboard:
		s.nav.Navigate(nav.Dashboard, nav.DashboardParams{})

	case EventCapture:
		if entry.Screen != nav.Capture {
			log.Debug().Str("screen", entry.Screen.String()).Msg("ignoring capture outside capture screen")
			return false
		}
		s.capture(ev.Image)

	case EventPhoto:
		if ev.Image.IsZero() {
			return false
		}
		s.nav.Navigate(nav.Estimate, nav.EstimateParams{Image: ev.Image})

	case EventJobSettled:
		if ev.Job == nil || ev.Job != s.current {
			log.Debug().Msg("ignoring stale job_settled event")
			return false
		}

	case EventOpenDetail:
		if entry.Screen != nav.Estimate || s.currentStatus() != job.StatusCompleted {
			return false
		}
		s.detailOpen = true

	case EventCloseDetail:
		if !s.detailOpen {
			return false
		}
		s.detailOpen = false

	case EventRetry:
		if entry.Screen != nav.Estimate || s.currentStatus() != job.StatusFailed {
			log.Debug().Msg("ignoring retry, job has not failed")
			return false
		}
		s.startJob(s.current.Image())

	default:
		log.Warn().Str("event", string(ev.Kind)).Msg("unknown session event")
		return false
	}
	return true
}

func (s *Session) capture(img photo.Handle) {
	if img.IsZero() {
		if s.device == nil {
			s.captureErr = &photo.CaptureError{Reason: "no capture device"}
			return
		}
		var err error
		img, err = s.device.Capture(s.ctx)
		if err != nil {
			log.Error().Err(err).Msg("capture failed")
			var capErr *photo.CaptureError
			if !errors.As(err, &capErr) {
				err = &photo.CaptureError{Reason: err.Error(), Err: err}
			}
			s.captureErr = err
			return
		}
	}
	s.captureErr = nil
	s.nav.Navigate(nav.Estimate, nav.EstimateParams{Image: img})
}

// onNavigate runs on the worker, inside Navigate.
func (s *Session) onNavigate(prev, next nav.Entry) {
	log.Debug().Str("from", prev.Screen.String()).Str("to", next.Screen.String()).Msg("navigate")

	s.detailOpen = false
	if next.Screen != nav.Capture {
		s.captureErr = nil
	}

	if prev.Screen == nav.Estimate && s.current != nil {
		s.current.Cancel()
		s.current = nil
	}

	if next.Screen == nav.Estimate {
		if img, ok := nav.EstimateImage(next); ok {
			s.startJob(img)
		}
	}
}

func (s *Session) startJob(img photo.Handle) {
	if s.current != nil {
		s.current.Cancel()
	}
	h := s.processor.Start(s.ctx, img)
	s.current = h
	s.detailOpen = false

	go func() {
		select {
		case <-h.Done():
			s.Send(Event{Kind: EventJobSettled, Job: h})
		case <-s.ctx.Done():
		}
	}()
}

func (s *Session) currentStatus() job.Status {
	if s.current == nil {
		return job.StatusIdle
	}
	return s.current.State().Status
}

func (s *Session) present() {
	in := screen.Input{
		Entry:      s.nav.Current(),
		DetailOpen: s.detailOpen,
		CaptureErr: s.captureErr,
		Jobs:       s.jobs,
	}
	if s.current != nil && in.Entry.Screen == nav.Estimate {
		st := s.current.State()
		in.Job = &st
	}
	v := screen.Render(in)

	s.mu.Lock()
	s.lastView = v
	s.mu.Unlock()

	s.presenter.Present(v)
}
