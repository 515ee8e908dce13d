package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/rs/zerolog/log"
)

// ErrCanceled is the failure of a job that was cancelled before it settled.
var ErrCanceled = errors.New("job canceled")

// Options configures a Processor.
type Options struct {
	// ServiceTimeout is the deadline for each individual service call.
	// Zero means no deadline.
	ServiceTimeout time.Duration
}

// Processor runs the estimator and the visualizer for a photo and combines
// their results into one job state.
type Processor struct {
	estimator  llm.Estimator
	visualizer llm.Visualizer
	opts       Options
}

// NewProcessor creates a Processor.
func NewProcessor(estimator llm.Estimator, visualizer llm.Visualizer, opts Options) *Processor {
	return &Processor{estimator: estimator, visualizer: visualizer, opts: opts}
}

// Handle tracks one job started by a Processor.
//
// State is safe to read from any goroutine. The job moves to Processing
// before Start returns and settles exactly once.
type Handle struct {
	id     string
	image  photo.Handle
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
}

// Start begins a new job for image. Every call creates an independent job;
// earlier jobs keep running.
func (p *Processor) Start(ctx context.Context, image photo.Handle) *Handle {
	jobCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		image:  image,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  State{Status: StatusIdle, Image: image},
	}

	h.transition(State{Status: StatusProcessing, Image: image, StartedAt: time.Now()})
	log.Info().Str("jobID", h.id).Str("image", image.String()).Msg("job started")

	go p.run(jobCtx, h)
	return h
}

func (p *Processor) run(ctx context.Context, h *Handle) {
	defer h.cancel()

	estimate, rendered, err := Join2(ctx, p.estimate(h.image), p.render(h.image))

	next := h.State()
	next.SettledAt = time.Now()
	if err != nil {
		if ctx.Err() != nil {
			err = ErrCanceled
		}
		next.Status = StatusFailed
		next.Err = err
	} else {
		next.Status = StatusCompleted
		next.Estimate = estimate
		next.Rendered = rendered
	}
	h.transition(next)
	close(h.done)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("jobID", h.id).
		Str("status", next.Status.String()).
		Dur("elapsed", next.SettledAt.Sub(next.StartedAt)).
		Msg("job settled")
}

func (p *Processor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.ServiceTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.ServiceTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *Processor) estimate(image photo.Handle) func(context.Context) (*llm.Estimate, error) {
	return func(ctx context.Context) (*llm.Estimate, error) {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()

		estimate, err := p.estimator.Estimate(callCtx, image)
		if err != nil {
			var estErr *llm.EstimationError
			if errors.As(err, &estErr) {
				return nil, err
			}
			return nil, &llm.EstimationError{Reason: failureReason(callCtx, err), Err: err}
		}
		if estimate == nil {
			return nil, &llm.EstimationError{Reason: "empty estimate"}
		}
		return estimate, nil
	}
}

func (p *Processor) render(image photo.Handle) func(context.Context) (photo.Handle, error) {
	return func(ctx context.Context) (photo.Handle, error) {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()

		rendered, err := p.visualizer.Render(callCtx, image)
		if err != nil {
			var visErr *llm.VisualizationError
			if errors.As(err, &visErr) {
				return photo.Handle{}, err
			}
			return photo.Handle{}, &llm.VisualizationError{Reason: failureReason(callCtx, err), Err: err}
		}
		if rendered.IsZero() {
			return photo.Handle{}, &llm.VisualizationError{Reason: "empty render"}
		}
		return rendered, nil
	}
}

// failureReason maps context errors to short reasons and passes anything
// else through as text.
func failureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}

// ID returns the job's unique identifier.
func (h *Handle) ID() string {
	return h.id
}

// Image returns the photo the job was started with.
func (h *Handle) Image() photo.Handle {
	return h.image
}

// State returns a snapshot of the job.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Done is closed once the job has settled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job settles or ctx is done and returns the latest state.
func (h *Handle) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.done:
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

// Cancel stops the job's service calls. A job that has not settled yet
// fails with ErrCanceled; a settled job is unaffected.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) transition(next State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !canTransition(h.state.Status, next.Status) {
		log.Error().
			Str("jobID", h.id).
			Str("from", h.state.Status.String()).
			Str("to", next.Status.String()).
			Msg("invalid job state transition")
		return
	}
	h.state = next
}
