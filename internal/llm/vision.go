package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/raine/contractor-pro/internal/photo"
)

// Money is an amount in cents.
type Money int64

// Dollars converts a whole-dollar amount to Money.
func Dollars(d int64) Money {
	return Money(d * 100)
}

// MoneyFromFloat converts a dollar amount with fractions to Money, rounding
// to the nearest cent.
func MoneyFromFloat(d float64) Money {
	return Money(math.Round(d * 100))
}

// String formats the amount as $4,500 or $4,500.50.
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	dollars, cents := int64(m)/100, int64(m)%100
	if cents == 0 {
		return sign + "$" + humanize.Comma(dollars)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(dollars), cents)
}

// BreakdownItem is one line of a cost estimate.
type BreakdownItem struct {
	Label string
	Cost  Money
}

// Estimate is the cost breakdown produced for one site photo.
type Estimate struct {
	Total     Money
	Breakdown []BreakdownItem
}

// Sum adds up the breakdown lines.
func (e *Estimate) Sum() Money {
	var sum Money
	for _, item := range e.Breakdown {
		sum += item.Cost
	}
	return sum
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Estimator produces a cost breakdown for a job site photo.
type Estimator interface {
	Estimate(ctx context.Context, image photo.Handle) (*Estimate, error)
}

// Visualizer produces a "renovated" rendering of a job site photo.
type Visualizer interface {
	Render(ctx context.Context, image photo.Handle) (photo.Handle, error)
}
