package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raine/contractor-pro/internal/photo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		amount Money
		want   string
	}{
		{Dollars(4500), "$4,500"},
		{Dollars(12000), "$12,000"},
		{Dollars(0), "$0"},
		{Money(450050), "$4,500.50"},
		{Money(5), "$0.05"},
		{-Dollars(300), "-$300"},
		{Dollars(1250000), "$1,250,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.String())
		})
	}
}

func TestMoneyFromFloat(t *testing.T) {
	assert.Equal(t, Money(450050), MoneyFromFloat(4500.5))
	assert.Equal(t, Money(1999), MoneyFromFloat(19.99))
}

func TestSampleEstimate_TotalMatchesBreakdown(t *testing.T) {
	e := SampleEstimate()
	assert.Equal(t, Dollars(4500), e.Total)
	assert.Equal(t, e.Total, e.Sum())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "timeout", Reason(&EstimationError{Reason: "timeout"}))
	assert.Equal(t, "no image", Reason(fmt.Errorf("wrapped: %w", &VisualizationError{Reason: "no image"})))
	assert.Equal(t, "boom", Reason(errors.New("boom")))
}

func TestServiceErrors_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := &EstimationError{Reason: "quota exceeded", Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "estimation failed: quota exceeded", err.Error())
	assert.Equal(t, "visualization failed: x", (&VisualizationError{Reason: "x"}).Error())
}

func TestMockEstimator_Defaults(t *testing.T) {
	m := NewMockEstimator(time.Millisecond)
	img := photo.FromURI("img-1")

	e, err := m.Estimate(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, SampleEstimate(), e)
	assert.Equal(t, []photo.Handle{img}, m.Calls())
}

func TestMockEstimator_HonorsContext(t *testing.T) {
	m := NewMockEstimator(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Estimate(ctx, photo.FromURI("img-1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockVisualizer_Override(t *testing.T) {
	m := &MockVisualizer{
		RenderFunc: func(ctx context.Context, image photo.Handle) (photo.Handle, error) {
			return photo.FromURI(image.URI + "-rendered"), nil
		},
	}

	h, err := m.Render(context.Background(), photo.FromURI("img-1"))
	require.NoError(t, err)
	assert.Equal(t, "img-1-rendered", h.URI)
	assert.Len(t, m.Calls(), 1)
}

func TestMockVisualizer_Defaults(t *testing.T) {
	h, err := NewMockVisualizer(0).Render(context.Background(), photo.FromURI("img-1"))
	require.NoError(t, err)
	assert.Equal(t, MockRenderedURI, h.URI)
}
