package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/nav"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/screen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPresenter keeps every view it receives
type recordingPresenter struct {
	mu    sync.Mutex
	views []screen.View
}

func (p *recordingPresenter) Present(v screen.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
}

func (p *recordingPresenter) last() screen.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.views) == 0 {
		return screen.View{}
	}
	return p.views[len(p.views)-1]
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

type testEnv struct {
	session    *Session
	presenter  *recordingPresenter
	estimator  *llm.MockEstimator
	visualizer *llm.MockVisualizer
}

func newTestEnv(t *testing.T, device photo.Device) *testEnv {
	t.Helper()
	env := &testEnv{
		presenter:  &recordingPresenter{},
		estimator:  llm.NewMockEstimator(5 * time.Millisecond),
		visualizer: llm.NewMockVisualizer(10 * time.Millisecond),
	}
	processor := job.NewProcessor(env.estimator, env.visualizer, job.Options{ServiceTimeout: time.Second})
	env.session = NewSession(context.Background(), processor, device, env.presenter, nil)
	env.session.Start()
	t.Cleanup(env.session.Stop)
	return env
}

// toEstimate drives the session from the dashboard to a started job
func (env *testEnv) toEstimate(t *testing.T, img photo.Handle) {
	t.Helper()
	env.session.SendSync(Event{Kind: EventNewEstimate})
	env.session.SendSync(Event{Kind: EventCapture, Image: img})
	require.Equal(t, nav.Estimate, env.session.Entry().Screen)
}

func (env *testEnv) waitFor(t *testing.T, cond func(v screen.View) bool) screen.View {
	t.Helper()
	var v screen.View
	require.Eventually(t, func() bool {
		v = env.session.View()
		return cond(v)
	}, 2*time.Second, 5*time.Millisecond)
	return v
}

func TestSession_InitialDashboard(t *testing.T) {
	env := newTestEnv(t, photo.NewStaticDevice())
	env.session.SendSync(Event{Kind: EventRefresh})

	v := env.session.View()
	assert.Equal(t, nav.Dashboard, v.Screen)
	assert.Len(t, v.Jobs, 2)
}

func TestSession_FullFlowWithDevice(t *testing.T) {
	sample := photo.FromURI(photo.SampleSitePhotoURI)
	env := newTestEnv(t, &photo.StaticDevice{Photo: sample})

	env.session.SendSync(Event{Kind: EventNewEstimate})
	assert.Equal(t, nav.Capture, env.session.View().Screen)

	env.session.SendSync(Event{Kind: EventCapture})
	v := env.session.View()
	assert.Equal(t, nav.Estimate, v.Screen)
	assert.True(t, v.Loading)
	assert.Equal(t, sample, v.Image)

	v = env.waitFor(t, func(v screen.View) bool { return !v.Loading })
	assert.Empty(t, v.Error)
	assert.Equal(t, llm.SampleEstimate(), v.Estimate)
	assert.Equal(t, llm.MockRenderedURI, v.Rendered.URI)
	assert.Equal(t, []photo.Handle{sample}, env.estimator.Calls())
	assert.Equal(t, []photo.Handle{sample}, env.visualizer.Calls())
}

func TestSession_CaptureFailureStaysOnCapture(t *testing.T) {
	env := newTestEnv(t, &photo.FileDevice{Path: "/nonexistent/site.jpg"})

	env.session.SendSync(Event{Kind: EventNewEstimate})
	env.session.SendSync(Event{Kind: EventCapture})

	v := env.session.View()
	assert.Equal(t, nav.Capture, v.Screen)
	assert.Contains(t, v.Error, "capture failed")
	assert.Empty(t, env.estimator.Calls())

	// Leaving the screen clears the error
	env.session.SendSync(Event{Kind: EventDashboard})
	env.session.SendSync(Event{Kind: EventNewEstimate})
	assert.Empty(t, env.session.View().Error)
}

func TestSession_CaptureIgnoredOutsideCaptureScreen(t *testing.T) {
	env := newTestEnv(t, &photo.StaticDevice{Photo: photo.FromURI("x.jpg")})

	env.session.SendSync(Event{Kind: EventCapture})

	assert.Equal(t, nav.Dashboard, env.session.Entry().Screen)
	assert.Empty(t, env.estimator.Calls())
}

func TestSession_LeavingEstimateCancelsJob(t *testing.T) {
	env := newTestEnv(t, nil)
	canceled := make(chan struct{})
	env.estimator.EstimateFunc = func(ctx context.Context, image photo.Handle) (*llm.Estimate, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	}

	env.toEstimate(t, photo.FromURI("img-1"))
	env.session.SendSync(Event{Kind: EventDashboard})

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not cancelled when leaving the estimate screen")
	}

	// The settle of the cancelled job must not re-render a stale estimate
	before := env.presenter.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, env.presenter.count())
	assert.Equal(t, nav.Dashboard, env.session.View().Screen)
}

func TestSession_RetryOnlyWhenFailed(t *testing.T) {
	env := newTestEnv(t, nil)
	var calls atomic.Int32
	env.estimator.EstimateFunc = func(ctx context.Context, image photo.Handle) (*llm.Estimate, error) {
		if calls.Add(1) == 1 {
			return nil, &llm.EstimationError{Reason: "timeout"}
		}
		return llm.SampleEstimate(), nil
	}
	img := photo.FromURI("img-1")
	env.toEstimate(t, img)

	v := env.waitFor(t, func(v screen.View) bool { return v.Error != "" })
	assert.Equal(t, "estimation failed: timeout", v.Error)
	assert.True(t, v.HasAction(screen.ActionRetry))

	env.session.SendSync(Event{Kind: EventRetry})
	v = env.waitFor(t, func(v screen.View) bool { return v.Estimate != nil })
	assert.Empty(t, v.Error)

	// Retry after success does nothing
	env.session.SendSync(Event{Kind: EventRetry})
	assert.Equal(t, int32(2), calls.Load())

	estimatorImages := env.estimator.Calls()
	require.Len(t, estimatorImages, 2)
	assert.Equal(t, img, estimatorImages[0])
	assert.Equal(t, img, estimatorImages[1])
}

func TestSession_DetailModal(t *testing.T) {
	env := newTestEnv(t, nil)

	// Not available while processing
	env.estimator.Delay = 200 * time.Millisecond
	env.toEstimate(t, photo.FromURI("img-1"))
	env.session.SendSync(Event{Kind: EventOpenDetail})
	assert.False(t, env.session.View().DetailOpen)

	env.waitFor(t, func(v screen.View) bool { return v.Estimate != nil })

	env.session.SendSync(Event{Kind: EventOpenDetail})
	v := env.session.View()
	assert.True(t, v.DetailOpen)
	assert.True(t, v.HasAction(screen.ActionCloseDetail))

	env.session.SendSync(Event{Kind: EventCloseDetail})
	assert.False(t, env.session.View().DetailOpen)
}

func TestSession_StaleJobSettledIgnored(t *testing.T) {
	env := newTestEnv(t, nil)
	env.estimator.Delay = time.Hour
	env.toEstimate(t, photo.FromURI("img-1"))

	other := job.NewProcessor(llm.NewMockEstimator(0), llm.NewMockVisualizer(0), job.Options{}).
		Start(context.Background(), photo.FromURI("img-2"))
	_, err := other.Wait(context.Background())
	require.NoError(t, err)

	before := env.presenter.count()
	env.session.SendSync(Event{Kind: EventJobSettled, Job: other})

	assert.Equal(t, before, env.presenter.count())
	assert.True(t, env.session.View().Loading)
}

func TestSession_PanicRecovery(t *testing.T) {
	var panicked atomic.Bool
	presenter := PresenterFunc(func(v screen.View) {
		if v.Screen == nav.Capture && panicked.CompareAndSwap(false, true) {
			panic("simulated presenter panic")
		}
	})
	processor := job.NewProcessor(llm.NewMockEstimator(0), llm.NewMockVisualizer(0), job.Options{})
	s := NewSession(context.Background(), processor, nil, presenter, nil)
	s.Start()
	defer s.Stop()

	s.SendSync(Event{Kind: EventNewEstimate})
	s.SendSync(Event{Kind: EventDashboard})

	assert.True(t, panicked.Load())
	assert.Equal(t, nav.Dashboard, s.View().Screen)
}

func TestSession_SendAfterStop(t *testing.T) {
	processor := job.NewProcessor(llm.NewMockEstimator(0), llm.NewMockVisualizer(0), job.Options{})
	s := NewSession(context.Background(), processor, nil, nil, nil)
	s.Start()
	s.Stop()

	// The inbox has free buffer space after Stop, so a single send is not enough
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			s.SendSync(Event{Kind: EventRefresh})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendSync blocked on a stopped session")
	}
}

func TestSession_SendSyncDuringStop(t *testing.T) {
	for i := 0; i < 50; i++ {
		processor := job.NewProcessor(llm.NewMockEstimator(0), llm.NewMockVisualizer(0), job.Options{})
		s := NewSession(context.Background(), processor, nil, nil, nil)
		s.Start()

		done := make(chan struct{})
		go func() {
			for j := 0; j < 20; j++ {
				s.SendSync(Event{Kind: EventRefresh})
			}
			close(done)
		}()
		s.Stop()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("iteration %d: SendSync blocked while the session stopped", i)
		}
	}
}

func TestSession_PhotoStartsEstimateFromAnyScreen(t *testing.T) {
	env := newTestEnv(t, nil)

	first := photo.FromURI("img-1")
	env.session.SendSync(Event{Kind: EventPhoto, Image: first})
	assert.Equal(t, nav.Estimate, env.session.Entry().Screen)

	// A second photo while the first is processing replaces the job
	second := photo.FromURI("img-2")
	env.session.SendSync(Event{Kind: EventPhoto, Image: second})
	img, ok := nav.EstimateImage(env.session.Entry())
	require.True(t, ok)
	assert.Equal(t, second, img)

	v := env.waitFor(t, func(v screen.View) bool { return v.Estimate != nil })
	assert.Equal(t, second, v.Image)
	assert.Contains(t, env.estimator.Calls(), second)
}

func TestSession_PhotoWithoutImageIgnored(t *testing.T) {
	env := newTestEnv(t, nil)

	env.session.SendSync(Event{Kind: EventPhoto})

	assert.Equal(t, nav.Dashboard, env.session.Entry().Screen)
	assert.Empty(t, env.estimator.Calls())
}

func TestSession_NoDeviceCaptureError(t *testing.T) {
	processor := job.NewProcessor(llm.NewMockEstimator(0), llm.NewMockVisualizer(0), job.Options{})
	s := NewSession(context.Background(), processor, nil, nil, nil)
	s.Start()
	defer s.Stop()

	s.SendSync(Event{Kind: EventNewEstimate})
	s.SendSync(Event{Kind: EventCapture})

	assert.Equal(t, nav.Capture, s.Entry().Screen)
	assert.Equal(t, "capture failed: no capture device", s.View().Error)
}

func TestEventFor(t *testing.T) {
	assert.Equal(t, EventRetry, EventFor(screen.ActionRetry).Kind)
	assert.Equal(t, EventNewEstimate, EventFor(screen.ActionNewEstimate).Kind)
}
