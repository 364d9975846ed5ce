package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pcdash/internal/models"

	"go.uber.org/zap"
)

// DashboardOptions sizes the monitors and their schedule
type DashboardOptions struct {
	Capacity        int
	SampleInterval  time.Duration
	DefaultLookback int
}

// StatsPayload is pushed to stream clients once per tick
type StatsPayload struct {
	Status models.DashboardStatus `json:"status"`
	Views  []models.WindowView    `json:"views"`
}

// Dashboard owns the four monitors (cpu, gpu, memory, network), the alert
// evaluator and the per-metric lookback selection, and schedules them.
type Dashboard struct {
	monitors []*Monitor
	byMetric map[models.Metric]*Monitor
	gpu      *GPUProbe
	network  *NetworkProbe
	alerts   *AlertEvaluator
	views    *ViewCache
	hub      *WebSocketHub
	cpuInfo  models.CPUInfo
	memInfo  models.MemoryInfo
	interval time.Duration
	log      *zap.Logger

	mu        sync.RWMutex
	lookbacks map[models.Metric]int
	extra     []namedTask
	tasks     []*PeriodicTask
	running   bool
}

type namedTask struct {
	name string
	fn   func(ctx context.Context)
}

// NewDashboard reads the hardware description once, picks the network
// interface and builds one monitor per panel.
func NewDashboard(ctx context.Context, src MetricSource, hw HardwareInfo, alerts *AlertEvaluator, opts DashboardOptions, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = time.Second
	}
	if ValidateLookback(opts.DefaultLookback) != nil {
		opts.DefaultLookback = MinLookbackSeconds
	}

	iface := models.UnknownInterface
	if hw != nil {
		ifaces, err := hw.Interfaces(ctx)
		if err != nil {
			log.Warn("list interfaces", zap.Error(err))
		}
		iface = SelectPrimaryInterface(ifaces)
	}
	log.Info("network interface selected", zap.String("interface", iface))

	d := &Dashboard{
		byMetric:  make(map[models.Metric]*Monitor),
		gpu:       NewGPUProbe(src),
		network:   NewNetworkProbe(src, iface),
		alerts:    alerts,
		views:     NewViewCache(),
		interval:  opts.SampleInterval,
		log:       log,
		lookbacks: make(map[models.Metric]int),
	}
	if hw != nil {
		d.cpuInfo = hw.CPUInfo(ctx)
		d.memInfo = hw.MemoryInfo(ctx)
	}

	for _, m := range []*Monitor{
		NewMonitor("cpu", CPUProbe(src), opts.Capacity, log),
		NewMonitor("gpu", d.gpu, opts.Capacity, log),
		NewMonitor("memory", MemoryProbe(src), opts.Capacity, log),
		NewMonitor("network", d.network, opts.Capacity, log),
	} {
		d.monitors = append(d.monitors, m)
		for _, metric := range m.Metrics() {
			d.byMetric[metric] = m
			d.lookbacks[metric] = opts.DefaultLookback
		}
	}
	return d
}

// AttachHub makes the dashboard stream a StatsPayload to hub every tick.
// Call before Start.
func (d *Dashboard) AttachHub(hub *WebSocketHub) {
	d.hub = hub
}

// AddTask registers an extra task run every sample interval. Call before Start.
func (d *Dashboard) AddTask(name string, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extra = append(d.extra, namedTask{name: name, fn: fn})
}

// Start launches one sampling task per monitor plus the alert check and, when
// a hub is attached, the broadcast. It is a no-op if already running.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true

	for _, m := range d.monitors {
		d.tasks = append(d.tasks, StartPeriodic(ctx, "sample:"+m.Name(), d.interval, m.Tick, d.log))
	}
	if d.alerts != nil {
		d.tasks = append(d.tasks, StartPeriodic(ctx, "alerts", d.interval, func(context.Context) {
			d.alerts.Check(d)
		}, d.log))
	}
	if d.hub != nil {
		d.tasks = append(d.tasks, StartPeriodic(ctx, "broadcast", d.interval, func(context.Context) {
			d.hub.Publish(MessageStats, d.Stats())
		}, d.log))
	}
	for _, t := range d.extra {
		d.tasks = append(d.tasks, StartPeriodic(ctx, t.name, d.interval, t.fn, d.log))
	}

	d.log.Info("dashboard started", zap.Duration("interval", d.interval), zap.Int("tasks", len(d.tasks)))
}

// Stop cancels every task and waits for them to exit.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.running = false
	d.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	d.log.Info("dashboard stopped")
}

// Tick samples every monitor once, then checks alerts. Useful for one-shot
// snapshots and tests.
func (d *Dashboard) Tick(ctx context.Context) {
	for _, m := range d.monitors {
		m.Tick(ctx)
	}
	if d.alerts != nil {
		d.alerts.Check(d)
	}
}

// Monitors returns the panels' monitors in display order.
func (d *Dashboard) Monitors() []*Monitor { return d.monitors }

// Alerts returns the alert evaluator, which may be nil.
func (d *Dashboard) Alerts() *AlertEvaluator { return d.alerts }

// Interface returns the network interface the dashboard follows.
func (d *Dashboard) Interface() string { return d.network.Interface() }

// Latest returns the newest sample of metric.
func (d *Dashboard) Latest(metric models.Metric) (float64, bool) {
	m, ok := d.byMetric[metric]
	if !ok {
		return 0, false
	}
	return m.Latest(metric)
}

// Sample returns the newest sample with its readout text.
func (d *Dashboard) Sample(metric models.Metric) (models.Sample, error) {
	m, ok := d.byMetric[metric]
	if !ok {
		return models.Sample{}, fmt.Errorf("%w: %s", models.ErrUnknownMetric, metric)
	}
	v, _ := m.Latest(metric)
	return models.Sample{
		Metric:    metric,
		Value:     v,
		Readout:   FormatReadout(metric, v),
		Timestamp: m.LastSampled(),
	}, nil
}

// Lookback returns the selected window of metric in seconds.
func (d *Dashboard) Lookback(metric models.Metric) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookbacks[metric]
}

// SetLookback changes the selected window of metric.
func (d *Dashboard) SetLookback(metric models.Metric, seconds int) error {
	if _, ok := d.byMetric[metric]; !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownMetric, metric)
	}
	if err := ValidateLookback(seconds); err != nil {
		return err
	}
	d.mu.Lock()
	d.lookbacks[metric] = seconds
	d.mu.Unlock()
	d.log.Debug("lookback changed", zap.Stringer("metric", metric), zap.Int("seconds", seconds))
	return nil
}

// View renders the window of metric. lookback 0 uses the selected window.
func (d *Dashboard) View(metric models.Metric, lookback int) (models.WindowView, error) {
	m, ok := d.byMetric[metric]
	if !ok {
		return models.WindowView{}, fmt.Errorf("%w: %s", models.ErrUnknownMetric, metric)
	}
	if lookback == 0 {
		lookback = d.Lookback(metric)
	} else if err := ValidateLookback(lookback); err != nil {
		return models.WindowView{}, err
	}
	return d.views.Get(metric, m.Series(metric), lookback), nil
}

// Views renders every metric at its selected window.
func (d *Dashboard) Views() []models.WindowView {
	out := make([]models.WindowView, 0, len(models.AllMetrics))
	for _, metric := range models.AllMetrics {
		if v, err := d.View(metric, 0); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Status collects readouts, panel headers and alert states.
func (d *Dashboard) Status() models.DashboardStatus {
	status := models.DashboardStatus{
		Lookbacks: make(map[models.Metric]int),
		CPU:       d.cpuInfo,
		Memory:    d.memInfo,
		GPU:       d.gpu.Stats(),
		Network:   models.NetworkInfo{Interface: d.network.Interface()},
		Timestamp: time.Now(),
	}
	for _, metric := range models.AllMetrics {
		if s, err := d.Sample(metric); err == nil {
			status.Samples = append(status.Samples, s)
		}
		status.Lookbacks[metric] = d.Lookback(metric)
	}
	if d.alerts != nil {
		status.Alerts = d.alerts.Statuses()
	}
	return status
}

// ViewCacheStats reports the window cache's size and hit/miss counters.
type ViewCacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// CacheStats returns the window cache counters.
func (d *Dashboard) CacheStats() ViewCacheStats {
	hits, misses := d.views.Stats()
	return ViewCacheStats{Entries: d.views.Len(), Hits: hits, Misses: misses}
}

// Stats is the per-tick stream payload.
func (d *Dashboard) Stats() StatsPayload {
	return StatsPayload{Status: d.Status(), Views: d.Views()}
}

var _ LatestReader = (*Dashboard)(nil)
