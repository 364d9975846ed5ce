package models

import "time"

// AlertPhase is the per-metric alert state machine position
type AlertPhase string

const (
	AlertIdle        AlertPhase = "idle"
	AlertCoolingDown AlertPhase = "cooling_down"
)

// AlertState is the mutable alert record kept for one metric
type AlertState struct {
	Threshold    float64
	ThresholdSet bool
	LastAlert    time.Time
}

// Phase reports whether the metric is still inside its cooldown window at now
func (s AlertState) Phase(now time.Time, cooldown time.Duration) AlertPhase {
	if s.LastAlert.IsZero() || now.Sub(s.LastAlert) >= cooldown {
		return AlertIdle
	}
	return AlertCoolingDown
}

// AlertStatus is the read-only view of an AlertState handed to displays
type AlertStatus struct {
	Metric       Metric     `json:"metric"`
	Threshold    *float64   `json:"threshold,omitempty"`
	ThresholdSet bool       `json:"threshold_set"`
	Phase        AlertPhase `json:"phase"`
	LastAlert    *time.Time `json:"last_alert,omitempty"`
	Text         string     `json:"text"`
}

// Notification is one fired alert
type Notification struct {
	Metric    Metric    `json:"metric"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}
