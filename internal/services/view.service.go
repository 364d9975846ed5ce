package services

import (
	"errors"
	"fmt"

	"pcdash/internal/models"
)

const (
	MinLookbackSeconds = 60
	MaxLookbackSeconds = 3600

	// targetTicks is roughly how many x-axis ticks a window gets
	targetTicks = 20
)

var ErrLookbackRange = errors.New("lookback out of range")

// ValidateLookback checks a user-selected window against [60, 3600] seconds.
func ValidateLookback(seconds int) error {
	if seconds < MinLookbackSeconds || seconds > MaxLookbackSeconds {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrLookbackRange, seconds, MinLookbackSeconds, MaxLookbackSeconds)
	}
	return nil
}

// TickPositions returns 0..lookback inclusive in steps of max(1, lookback/20).
func TickPositions(lookback int) []int {
	if lookback < 0 {
		lookback = 0
	}
	step := lookback / targetTicks
	if step < 1 {
		step = 1
	}
	ticks := make([]int, 0, lookback/step+1)
	for t := 0; t <= lookback; t += step {
		ticks = append(ticks, t)
	}
	return ticks
}

// AxisLabel is the x-axis caption of a window, e.g. "Last 5 minute(s)".
func AxisLabel(lookback int) string {
	return fmt.Sprintf("Last %d minute(s)", lookback/60)
}

// RenderView derives the chart inputs for the trailing lookback samples of
// history. It keeps no state between calls.
func RenderView(metric models.Metric, history []float64, lookback int) models.WindowView {
	visible := history
	if lookback >= 0 && len(visible) > lookback {
		visible = visible[len(visible)-lookback:]
	}
	values := make([]float64, len(visible))
	copy(values, visible)

	xs := make([]int, len(values))
	for i := range xs {
		xs[i] = i
	}

	return models.WindowView{
		Metric:          metric,
		LookbackSeconds: lookback,
		Values:          values,
		XPositions:      xs,
		Ticks:           TickPositions(lookback),
		XLimit:          lookback,
		AxisLabel:       AxisLabel(lookback),
	}
}

// ViewFor renders the window straight from a series.
func ViewFor(metric models.Metric, s *Series, lookback int) models.WindowView {
	if lookback <= 0 {
		return RenderView(metric, nil, lookback)
	}
	return RenderView(metric, s.Slice(lookback), lookback)
}
