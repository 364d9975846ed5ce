package models

import "time"

// DashboardStatus combines the latest readouts and panel settings
type DashboardStatus struct {
	Samples   []Sample       `json:"samples"`
	Lookbacks map[Metric]int `json:"lookbacks"`
	CPU       CPUInfo        `json:"cpu"`
	Memory    MemoryInfo     `json:"memory"`
	GPU       *GPUStats      `json:"gpu,omitempty"`
	Network   NetworkInfo    `json:"network"`
	Alerts    []AlertStatus  `json:"alerts"`
	Timestamp time.Time      `json:"timestamp"`
}
