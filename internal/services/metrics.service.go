package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcdash/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

const GB = 1024 * 1024 * 1024

// ErrUnavailable marks a metric that this machine cannot provide (no GPU, no
// matching interface). Samplers substitute 0 for it without complaint.
var ErrUnavailable = errors.New("metric unavailable")

var (
	ErrNoGPU             = fmt.Errorf("%w: no gpu detected", ErrUnavailable)
	ErrInterfaceNotFound = fmt.Errorf("%w: interface not found", ErrUnavailable)
)

// MetricSource is everything the samplers read from the operating system
type MetricSource interface {
	ReadCPUPercent(ctx context.Context) (float64, error)
	ReadGPUStats(ctx context.Context) (*models.GPUStats, error)
	ReadMemoryPercent(ctx context.Context) (float64, error)
	ReadNetworkCounters(ctx context.Context, iface string) (models.NetworkCounterSnapshot, error)
}

// HardwareInfo provides the descriptive panel headers, read once at startup
type HardwareInfo interface {
	CPUInfo(ctx context.Context) models.CPUInfo
	MemoryInfo(ctx context.Context) models.MemoryInfo
	Interfaces(ctx context.Context) ([]models.NetInterface, error)
}

// SystemSource reads local metrics through gopsutil, and the GPU through sysfs
type SystemSource struct {
	gpu *GPUReader
	now func() time.Time
}

// NewSystemSource creates a source; sysfsRoot is usually "/sys"
func NewSystemSource(sysfsRoot string) *SystemSource {
	return &SystemSource{
		gpu: NewGPUReader(sysfsRoot),
		now: time.Now,
	}
}

// ReadCPUPercent returns overall CPU usage since the previous call
func (s *SystemSource) ReadCPUPercent(ctx context.Context) (float64, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percentage) == 0 {
		return 0, fmt.Errorf("cpu percent: empty result")
	}
	return percentage[0], nil
}

// ReadGPUStats returns the first GPU's stats, or ErrNoGPU
func (s *SystemSource) ReadGPUStats(ctx context.Context) (*models.GPUStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.gpu.Read()
}

// ReadMemoryPercent returns used virtual memory as a percentage
func (s *SystemSource) ReadMemoryPercent(ctx context.Context) (float64, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return virtualMemory.UsedPercent, nil
}

// ReadNetworkCounters returns the cumulative byte counters of one interface
func (s *SystemSource) ReadNetworkCounters(ctx context.Context, iface string) (models.NetworkCounterSnapshot, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return models.NetworkCounterSnapshot{}, fmt.Errorf("io counters: %w", err)
	}

	for _, counter := range counters {
		if counter.Name == iface {
			return models.NetworkCounterSnapshot{
				Interface: iface,
				BytesSent: counter.BytesSent,
				BytesRecv: counter.BytesRecv,
				Timestamp: s.now(),
			}, nil
		}
	}
	return models.NetworkCounterSnapshot{}, fmt.Errorf("%w: %q", ErrInterfaceNotFound, iface)
}

// CPUInfo returns the processor name and core counts, best effort
func (s *SystemSource) CPUInfo(ctx context.Context) models.CPUInfo {
	info := models.CPUInfo{ModelName: "Unknown CPU"}

	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 && stats[0].ModelName != "" {
		info.ModelName = stats[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.Cores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.LogicalCores = n
	}
	return info
}

// MemoryInfo returns installed memory in GB, zero when unknown
func (s *SystemSource) MemoryInfo(ctx context.Context) models.MemoryInfo {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemoryInfo{}
	}
	return models.MemoryInfo{TotalGB: float64(virtualMemory.Total) / GB}
}

// Interfaces lists network interfaces with their addresses
func (s *SystemSource) Interfaces(ctx context.Context) ([]models.NetInterface, error) {
	stats, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("interfaces: %w", err)
	}

	out := make([]models.NetInterface, 0, len(stats))
	for _, st := range stats {
		iface := models.NetInterface{Name: st.Name}
		for _, addr := range st.Addrs {
			iface.Addrs = append(iface.Addrs, addr.Addr)
		}
		out = append(out, iface)
	}
	return out, nil
}

var (
	_ MetricSource = (*SystemSource)(nil)
	_ HardwareInfo = (*SystemSource)(nil)
)
