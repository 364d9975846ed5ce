package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pcdash/internal/models"

	"go.uber.org/zap"
)

// Probe reads one tick's worth of values for the metrics it owns.
// Read returns exactly one value per metric, in Metrics() order.
type Probe interface {
	Metrics() []models.Metric
	Read(ctx context.Context) ([]float64, error)
}

type scalarProbe struct {
	metric models.Metric
	read   func(ctx context.Context) (float64, error)
}

// ProbeFunc adapts a single scalar read to a Probe.
func ProbeFunc(metric models.Metric, read func(ctx context.Context) (float64, error)) Probe {
	return &scalarProbe{metric: metric, read: read}
}

func (p *scalarProbe) Metrics() []models.Metric { return []models.Metric{p.metric} }

func (p *scalarProbe) Read(ctx context.Context) ([]float64, error) {
	v, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	return []float64{v}, nil
}

// CPUProbe samples overall CPU usage.
func CPUProbe(src MetricSource) Probe {
	return ProbeFunc(models.CPU, src.ReadCPUPercent)
}

// MemoryProbe samples used memory percentage.
func MemoryProbe(src MetricSource) Probe {
	return ProbeFunc(models.Memory, src.ReadMemoryPercent)
}

// GPUProbe samples the first GPU and remembers its last stats for the panel header.
type GPUProbe struct {
	src MetricSource

	mu   sync.RWMutex
	last *models.GPUStats
}

func NewGPUProbe(src MetricSource) *GPUProbe {
	return &GPUProbe{src: src}
}

func (p *GPUProbe) Metrics() []models.Metric { return []models.Metric{models.GPU} }

func (p *GPUProbe) Read(ctx context.Context) ([]float64, error) {
	stats, err := p.src.ReadGPUStats(ctx)

	p.mu.Lock()
	p.last = stats
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return []float64{GPUSample(stats)}, nil
}

// Stats returns a copy of the last GPU reading, or nil when no GPU was seen.
func (p *GPUProbe) Stats() *models.GPUStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil
	}
	s := *p.last
	return &s
}

// NetworkProbe turns successive counter snapshots of one interface into
// download and upload rates. The interface is fixed for the probe's lifetime.
type NetworkProbe struct {
	src   MetricSource
	iface string
	last  *models.NetworkCounterSnapshot
}

func NewNetworkProbe(src MetricSource, iface string) *NetworkProbe {
	return &NetworkProbe{src: src, iface: iface}
}

// Interface returns the followed interface name.
func (p *NetworkProbe) Interface() string { return p.iface }

func (p *NetworkProbe) Metrics() []models.Metric {
	return []models.Metric{models.Download, models.Upload}
}

// Read returns [download, upload] in Mbps. The first successful read only
// seeds the previous snapshot and reports zeros.
func (p *NetworkProbe) Read(ctx context.Context) ([]float64, error) {
	if p.iface == models.UnknownInterface {
		return nil, ErrInterfaceNotFound
	}

	current, err := p.src.ReadNetworkCounters(ctx, p.iface)
	if err != nil {
		return nil, err
	}

	previous := p.last
	p.last = &current
	if previous == nil {
		return []float64{0, 0}, nil
	}

	down, up, ok := NetworkRates(*previous, current)
	if !ok {
		return []float64{0, 0}, nil
	}
	return []float64{down, up}, nil
}

// Monitor owns one probe and one rolling series per metric the probe yields.
// Tick is the only writer; Latest/View/Readout are safe from any goroutine.
type Monitor struct {
	name   string
	probe  Probe
	series map[models.Metric]*Series
	log    *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	lastSampled time.Time
}

// NewMonitor creates a monitor whose series hold at most capacity samples.
func NewMonitor(name string, probe Probe, capacity int, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		name:   name,
		probe:  probe,
		series: make(map[models.Metric]*Series),
		log:    log.With(zap.String("monitor", name)),
		now:    time.Now,
	}
	for _, metric := range probe.Metrics() {
		m.series[metric] = NewSeries(capacity)
	}
	return m
}

// Name returns the monitor's name.
func (m *Monitor) Name() string { return m.name }

// Metrics returns the metrics this monitor samples.
func (m *Monitor) Metrics() []models.Metric { return m.probe.Metrics() }

// Tick samples once and appends to every series. A failed or panicking read
// is logged and recorded as 0 so the history keeps its one-sample-per-tick shape.
func (m *Monitor) Tick(ctx context.Context) {
	values, err := m.read(ctx)

	metrics := m.probe.Metrics()
	if err == nil && len(values) != len(metrics) {
		err = fmt.Errorf("probe returned %d values for %d metrics", len(values), len(metrics))
	}
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			m.log.Debug("metric unavailable, recording 0", zap.Error(err))
		} else {
			m.log.Warn("sample failed, recording 0", zap.Error(err))
		}
		values = make([]float64, len(metrics))
	}

	for i, metric := range metrics {
		m.series[metric].Push(values[i])
	}

	m.mu.Lock()
	m.lastSampled = m.now()
	m.mu.Unlock()
}

func (m *Monitor) read(ctx context.Context) (values []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return m.probe.Read(ctx)
}

// Series returns the series for metric, or nil if this monitor does not own it.
func (m *Monitor) Series(metric models.Metric) *Series {
	return m.series[metric]
}

// Latest returns the most recent sample of metric.
func (m *Monitor) Latest(metric models.Metric) (float64, bool) {
	s, ok := m.series[metric]
	if !ok {
		return 0, false
	}
	return s.Latest()
}

// LastSampled returns when Tick last completed.
func (m *Monitor) LastSampled() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSampled
}

// Readout formats the latest sample the way the panel label shows it.
func (m *Monitor) Readout(metric models.Metric) string {
	v, _ := m.Latest(metric)
	return FormatReadout(metric, v)
}

// FormatReadout renders one value as a panel label, e.g. "CPU Usage: 12.3%"
// or "Download: 1.23 Mbps".
func FormatReadout(metric models.Metric, v float64) string {
	switch metric {
	case models.CPU:
		return fmt.Sprintf("CPU Usage: %.1f%%", v)
	case models.GPU:
		return fmt.Sprintf("GPU Usage: %.1f%%", v)
	case models.Memory:
		return fmt.Sprintf("Memory Usage: %.1f%%", v)
	case models.Download:
		return fmt.Sprintf("Download: %.2f Mbps", v)
	case models.Upload:
		return fmt.Sprintf("Upload: %.2f Mbps", v)
	}
	return fmt.Sprintf("%s: %.2f", metric, v)
}
