package display

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks are the eight block heights, lowest first.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls how one window is drawn.
type SparklineConfig struct {
	// Data is the window, oldest first.
	Data []float64
	// Width is the number of cells. 0 uses len(Data); wider pads on the left.
	Width int
	// Min and Max fix the scale. Min == Max auto-scales to the data.
	Min float64
	Max float64
	Color lipgloss.Color
}

// Sparkline renders data as one row of block characters. The newest sample
// is the rightmost cell, matching the chart's "now" at the right edge.
func Sparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 {
		return strings.Repeat(" ", max(cfg.Width, 0))
	}

	data := cfg.Data
	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if width < len(data) {
		data = data[len(data)-width:]
	}

	lo, hi := cfg.Min, cfg.Max
	if lo == hi {
		lo, hi = data[0], data[0]
		for _, v := range data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	runes := make([]rune, 0, len(data))
	for _, v := range data {
		if lo == hi {
			runes = append(runes, sparkBlocks[0])
			continue
		}
		n := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
		idx := int(n * float64(len(sparkBlocks)-1))
		runes = append(runes, sparkBlocks[idx])
	}

	out := string(runes)
	if width > len(data) {
		out = strings.Repeat(" ", width-len(data)) + out
	}
	if cfg.Color != "" {
		out = lipgloss.NewStyle().Foreground(cfg.Color).Render(out)
	}
	return out
}
