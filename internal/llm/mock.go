package llm

import (
	"context"
	"sync"
	"time"

	"github.com/raine/contractor-pro/internal/photo"
)

// MockRenderedURI is the canned "renovated" image returned by MockVisualizer.
const MockRenderedURI = "https://via.placeholder.com/400/4CAF50/FFFFFF?text=Renovated+View"

// SampleEstimate returns the canned bathroom-tiling estimate used in mock mode.
func SampleEstimate() *Estimate {
	return &Estimate{
		Total: Dollars(4500),
		Breakdown: []BreakdownItem{
			{Label: "Demolition & Prep", Cost: Dollars(500)},
			{Label: "Materials (Tiles, Grout)", Cost: Dollars(1200)},
			{Label: "Labor (Installation)", Cost: Dollars(2500)},
			{Label: "Waste Disposal", Cost: Dollars(300)},
		},
	}
}

// MockEstimator simulates a slow estimation service.
// EstimateFunc overrides the canned behaviour. Thread-safe.
type MockEstimator struct {
	Delay        time.Duration
	EstimateFunc func(ctx context.Context, image photo.Handle) (*Estimate, error)

	mu    sync.Mutex
	calls []photo.Handle
}

var _ Estimator = (*MockEstimator)(nil)

// NewMockEstimator returns a mock that answers with SampleEstimate after delay.
func NewMockEstimator(delay time.Duration) *MockEstimator {
	return &MockEstimator{Delay: delay}
}

func (m *MockEstimator) Estimate(ctx context.Context, image photo.Handle) (*Estimate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, image)
	fn := m.EstimateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, image)
	}
	if err := sleep(ctx, m.Delay); err != nil {
		return nil, err
	}
	return SampleEstimate(), nil
}

// Calls returns the images passed to Estimate, in call order.
func (m *MockEstimator) Calls() []photo.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]photo.Handle(nil), m.calls...)
}

// MockVisualizer simulates a slow image generation service.
// RenderFunc overrides the canned behaviour. Thread-safe.
type MockVisualizer struct {
	Delay      time.Duration
	RenderFunc func(ctx context.Context, image photo.Handle) (photo.Handle, error)

	mu    sync.Mutex
	calls []photo.Handle
}

var _ Visualizer = (*MockVisualizer)(nil)

// NewMockVisualizer returns a mock that answers with MockRenderedURI after delay.
func NewMockVisualizer(delay time.Duration) *MockVisualizer {
	return &MockVisualizer{Delay: delay}
}

func (m *MockVisualizer) Render(ctx context.Context, image photo.Handle) (photo.Handle, error) {
	m.mu.Lock()
	m.calls = append(m.calls, image)
	fn := m.RenderFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, image)
	}
	if err := sleep(ctx, m.Delay); err != nil {
		return photo.Handle{}, err
	}
	return photo.FromURI(MockRenderedURI), nil
}

// Calls returns the images passed to Render, in call order.
func (m *MockVisualizer) Calls() []photo.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]photo.Handle(nil), m.calls...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
