package models

// CPUInfo describes the processor shown in the CPU panel header
type CPUInfo struct {
	ModelName    string `json:"model_name"`
	Cores        int    `json:"cores"`
	LogicalCores int    `json:"logical_cores"`
}

// MemoryInfo describes installed memory
type MemoryInfo struct {
	TotalGB float64 `json:"total_gb"`
}

// GPUStats is one reading of the first detected GPU
type GPUStats struct {
	Card               string  `json:"card"`
	Name               string  `json:"name"`
	UtilizationPercent float64 `json:"utilization_percent"`
	HasUtilization     bool    `json:"-"`
	MemoryTotalMB      float64 `json:"memory_total_mb"`
	MemoryUsedMB       float64 `json:"memory_used_mb"`
	TemperatureC       float64 `json:"temperature_c"`
}

// MemoryPercent returns the VRAM used fraction as a percentage
func (g GPUStats) MemoryPercent() float64 {
	if g.MemoryTotalMB <= 0 {
		return 0
	}
	return g.MemoryUsedMB / g.MemoryTotalMB * 100
}
