package models

import "time"

// Sample is the latest value of a series at a point in time
type Sample struct {
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	Readout   string    `json:"readout"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowView is everything a chart needs to draw the trailing lookback window
type WindowView struct {
	Metric          Metric    `json:"metric"`
	LookbackSeconds int       `json:"lookback_seconds"`
	Values          []float64 `json:"values"`
	XPositions      []int     `json:"x_positions"`
	Ticks           []int     `json:"ticks"`
	XLimit          int       `json:"x_limit"`
	AxisLabel       string    `json:"axis_label"`
}
