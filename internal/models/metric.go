package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned when a metric name does not match any known series.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric identifies one sampled series.
type Metric int

const (
	CPU Metric = iota
	GPU
	Memory
	Download
	Upload
)

// AllMetrics lists every metric in display order.
var AllMetrics = []Metric{CPU, GPU, Memory, Download, Upload}

var metricNames = map[Metric]string{
	CPU:      "cpu",
	GPU:      "gpu",
	Memory:   "memory",
	Download: "download",
	Upload:   "upload",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Title is the upper-case name used in alert titles and status text.
func (m Metric) Title() string {
	return strings.ToUpper(m.String())
}

// IsPercent reports whether samples are bounded percentages (0-100).
func (m Metric) IsPercent() bool {
	return m == CPU || m == GPU || m == Memory
}

// Unit returns the display unit of the metric's samples.
func (m Metric) Unit() string {
	if m.IsPercent() {
		return "%"
	}
	return "Mbps"
}

// Valid reports whether m is one of the known metrics.
func (m Metric) Valid() bool {
	_, ok := metricNames[m]
	return ok
}

// ParseMetric resolves a metric by name (case-insensitive).
func ParseMetric(name string) (Metric, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for m, s := range metricNames {
		if s == n {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// MarshalText lets Metric be used as a JSON map key and value.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText parses a metric name.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
