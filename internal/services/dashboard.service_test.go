package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pcdash/internal/models"
)

type fakeHardware struct {
	ifaces []models.NetInterface
	err    error
}

func (f fakeHardware) CPUInfo(context.Context) models.CPUInfo {
	return models.CPUInfo{ModelName: "Test CPU", Cores: 4, LogicalCores: 8}
}

func (f fakeHardware) MemoryInfo(context.Context) models.MemoryInfo {
	return models.MemoryInfo{TotalGB: 16}
}

func (f fakeHardware) Interfaces(context.Context) ([]models.NetInterface, error) {
	return f.ifaces, f.err
}

func newTestDashboard(src *fakeSource, alerts *AlertEvaluator) *Dashboard {
	hw := fakeHardware{ifaces: []models.NetInterface{
		{Name: "lo", Addrs: []string{"127.0.0.1/8"}},
		{Name: "wlan0", Addrs: []string{"192.168.1.10/24"}},
	}}
	return NewDashboard(context.Background(), src, hw, alerts, DashboardOptions{
		Capacity:        120,
		SampleInterval:  time.Millisecond,
		DefaultLookback: 60,
	}, nil)
}

func TestDashboard_TickFillsEveryMetric(t *testing.T) {
	src := &fakeSource{cpu: []float64{25}, memory: []float64{50}, gpuErr: ErrNoGPU}
	d := newTestDashboard(src, nil)

	d.Tick(context.Background())

	for _, metric := range models.AllMetrics {
		if _, ok := d.Latest(metric); !ok {
			t.Errorf("%s: expected a sample after one tick", metric)
		}
	}
	if v, _ := d.Latest(models.CPU); v != 25 {
		t.Errorf("expected cpu 25, got %v", v)
	}
	if d.Interface() != "wlan0" {
		t.Errorf("expected wlan0 selected, got %q", d.Interface())
	}
}

func TestDashboard_UnknownInterfaceOnListError(t *testing.T) {
	hw := fakeHardware{err: errors.New("no netlink")}
	d := NewDashboard(context.Background(), &fakeSource{}, hw, nil, DashboardOptions{Capacity: 60}, nil)
	if d.Interface() != models.UnknownInterface {
		t.Errorf("expected %q, got %q", models.UnknownInterface, d.Interface())
	}
}

func TestDashboard_Lookback(t *testing.T) {
	d := newTestDashboard(&fakeSource{}, nil)

	if d.Lookback(models.CPU) != 60 {
		t.Fatalf("expected default lookback 60, got %d", d.Lookback(models.CPU))
	}
	if err := d.SetLookback(models.CPU, 300); err != nil {
		t.Fatal(err)
	}
	if d.Lookback(models.CPU) != 300 || d.Lookback(models.GPU) != 60 {
		t.Errorf("expected only cpu to change, got cpu=%d gpu=%d", d.Lookback(models.CPU), d.Lookback(models.GPU))
	}

	for _, bad := range []int{0, 59, 3601} {
		if err := d.SetLookback(models.CPU, bad); !errors.Is(err, ErrLookbackRange) {
			t.Errorf("lookback %d: expected ErrLookbackRange, got %v", bad, err)
		}
	}
	if d.Lookback(models.CPU) != 300 {
		t.Errorf("rejected lookback must not change the selection, got %d", d.Lookback(models.CPU))
	}
	if err := d.SetLookback(models.Metric(99), 60); !errors.Is(err, models.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestDashboard_View(t *testing.T) {
	src := &fakeSource{cpu: []float64{1, 2, 3, 4, 5}}
	d := newTestDashboard(src, nil)
	for i := 0; i < 5; i++ {
		d.Tick(context.Background())
	}

	view, err := d.View(models.CPU, 0)
	if err != nil {
		t.Fatal(err)
	}
	if view.LookbackSeconds != 60 || len(view.Values) != 5 || view.Values[4] != 5 {
		t.Errorf("unexpected view %+v", view)
	}
	if view.AxisLabel != "Last 1 minute(s)" {
		t.Errorf("unexpected axis label %q", view.AxisLabel)
	}

	if _, err := d.View(models.CPU, 30); !errors.Is(err, ErrLookbackRange) {
		t.Errorf("expected ErrLookbackRange, got %v", err)
	}
	if _, err := d.View(models.Metric(42), 60); !errors.Is(err, models.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
	if cs := d.CacheStats(); cs.Misses == 0 || cs.Entries == 0 {
		t.Errorf("expected view cache activity, got %+v", cs)
	}
	d.View(models.CPU, 0)
	if cs := d.CacheStats(); cs.Hits == 0 {
		t.Errorf("expected a cache hit for a repeated view, got %+v", cs)
	}
	if got := len(d.Views()); got != len(models.AllMetrics) {
		t.Errorf("expected %d views, got %d", len(models.AllMetrics), got)
	}
}

func TestDashboard_Status(t *testing.T) {
	src := &fakeSource{cpu: []float64{10}, memory: []float64{20}, gpu: &models.GPUStats{Name: "GPU", UtilizationPercent: 30, HasUtilization: true}}
	alerts := NewAlertEvaluator(models.AllMetrics, map[models.Metric]float64{models.CPU: 100}, DefaultAlertCooldown, nil, nil)
	d := newTestDashboard(src, alerts)
	d.Tick(context.Background())

	status := d.Status()
	if status.CPU.ModelName != "Test CPU" || status.Memory.TotalGB != 16 {
		t.Errorf("unexpected hardware headers %+v %+v", status.CPU, status.Memory)
	}
	if status.GPU == nil || status.GPU.Name != "GPU" {
		t.Errorf("expected gpu stats, got %+v", status.GPU)
	}
	if status.Network.Interface != "wlan0" {
		t.Errorf("unexpected interface %q", status.Network.Interface)
	}
	if len(status.Samples) != len(models.AllMetrics) || len(status.Alerts) != len(models.AllMetrics) {
		t.Errorf("expected one sample and alert per metric, got %d and %d", len(status.Samples), len(status.Alerts))
	}
	if status.Samples[0].Readout != "CPU Usage: 10.0%" {
		t.Errorf("unexpected readout %q", status.Samples[0].Readout)
	}
}

func TestDashboard_TickChecksAlerts(t *testing.T) {
	rec := &recordingNotifier{}
	alerts := NewAlertEvaluator(models.AllMetrics, nil, DefaultAlertCooldown, rec, nil)
	alerts.SetThreshold(models.Memory, "40")
	d := newTestDashboard(&fakeSource{memory: []float64{45}}, alerts)

	d.Tick(context.Background())

	if len(rec.titles) != 1 || rec.titles[0] != "MEMORY Alert" {
		t.Errorf("expected one memory alert, got %v", rec.titles)
	}
}

func TestDashboard_StartStop(t *testing.T) {
	d := newTestDashboard(&fakeSource{cpu: []float64{5}}, nil)

	var extra = make(chan struct{}, 1)
	d.AddTask("extra", func(context.Context) {
		select {
		case extra <- struct{}{}:
		default:
		}
	})

	d.Start(context.Background())
	d.Start(context.Background())
	waitFor(t, func() bool { return d.Monitors()[0].Series(models.CPU).Len() >= 3 })

	select {
	case <-extra:
	case <-time.After(2 * time.Second):
		t.Fatal("extra task never ran")
	}

	d.Stop()
	n := d.Monitors()[0].Series(models.CPU).Generation()
	time.Sleep(10 * time.Millisecond)
	if got := d.Monitors()[0].Series(models.CPU).Generation(); got != n {
		t.Errorf("samples kept arriving after Stop: %d -> %d", n, got)
	}
}
