package nav

import (
	"sync"
	"testing"

	"github.com/raine/contractor-pro/internal/photo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsOnDashboard(t *testing.T) {
	c := New()
	assert.Equal(t, Entry{Screen: Dashboard, Params: DashboardParams{}}, c.Current())
}

func TestNavigate_EstimateCarriesImage(t *testing.T) {
	c := New()
	img := photo.FromURI("img-1")

	c.Navigate(Estimate, EstimateParams{Image: img})

	cur := c.Current()
	assert.Equal(t, Estimate, cur.Screen)
	got, ok := EstimateImage(cur)
	require.True(t, ok)
	assert.Equal(t, img, got)
}

func TestNavigate_ReplacesEntry(t *testing.T) {
	c := New()
	c.Navigate(Capture, CaptureParams{})
	c.Navigate(Estimate, EstimateParams{Image: photo.FromURI("a")})
	c.Navigate(Dashboard, DashboardParams{})

	assert.Equal(t, Entry{Screen: Dashboard, Params: DashboardParams{}}, c.Current())
}

func TestNavigate_NotifiesInOrder(t *testing.T) {
	c := New()
	var got []string
	c.Subscribe(func(prev, next Entry) {
		got = append(got, "first:"+prev.Screen.String()+"->"+next.Screen.String())
	})
	c.Subscribe(func(prev, next Entry) {
		got = append(got, "second:"+prev.Screen.String()+"->"+next.Screen.String())
	})

	c.Navigate(Capture, CaptureParams{})

	assert.Equal(t, []string{"first:Dashboard->Capture", "second:Dashboard->Capture"}, got)
}

func TestNavigate_ListenerSeesNewCurrent(t *testing.T) {
	c := New()
	var seen Entry
	c.Subscribe(func(prev, next Entry) {
		seen = c.Current()
	})

	c.Navigate(Capture, CaptureParams{})
	assert.Equal(t, Capture, seen.Screen)
}

func TestNavigate_DoesNotValidateParams(t *testing.T) {
	c := New()
	c.Navigate(Estimate, CaptureParams{})

	cur := c.Current()
	assert.Equal(t, Estimate, cur.Screen)
	_, ok := EstimateImage(cur)
	assert.False(t, ok)
}

func TestEstimateImage(t *testing.T) {
	img := photo.FromURI("x.jpg")
	tests := []struct {
		name  string
		entry Entry
		ok    bool
	}{
		{"value params", Entry{Screen: Estimate, Params: EstimateParams{Image: img}}, true},
		{"pointer params", Entry{Screen: Estimate, Params: &EstimateParams{Image: img}}, true},
		{"nil pointer", Entry{Screen: Estimate, Params: (*EstimateParams)(nil)}, false},
		{"nil params", Entry{Screen: Estimate}, false},
		{"empty image", Entry{Screen: Estimate, Params: EstimateParams{}}, false},
		{"wrong screen", Entry{Screen: Capture, Params: EstimateParams{Image: img}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateImage(tt.entry)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, img, got)
			}
		})
	}
}

func TestController_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Navigate(Capture, CaptureParams{})
		}()
		go func() {
			defer wg.Done()
			_ = c.Current()
		}()
	}
	wg.Wait()
	assert.Equal(t, Capture, c.Current().Screen)
}

func TestScreenID_String(t *testing.T) {
	assert.Equal(t, "Dashboard", Dashboard.String())
	assert.Equal(t, "Capture", Capture.String())
	assert.Equal(t, "Estimate", Estimate.String())
	assert.Equal(t, "Screen(7)", ScreenID(7).String())
}
