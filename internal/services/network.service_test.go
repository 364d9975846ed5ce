package services

import (
	"testing"

	"pcdash/internal/models"
)

func TestRateMbps(t *testing.T) {
	tests := []struct {
		name     string
		previous uint64
		current  uint64
		want     float64
	}{
		{"identical counters", 5000, 5000, 0},
		{"counter reset clamps to zero", 1000, 500, 0},
		{"one mebibyte is eight megabits", 0, 1024 * 1024, 8},
		{"128 KiB is one megabit", 1 << 20, 1<<20 + 128*1024, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RateMbps(tt.previous, tt.current); got != tt.want {
				t.Errorf("RateMbps(%d, %d) = %v, want %v", tt.previous, tt.current, got, tt.want)
			}
		})
	}
}

func TestNetworkRates(t *testing.T) {
	prev := models.NetworkCounterSnapshot{Interface: "wlan0", BytesSent: 1000, BytesRecv: 1000}
	cur := models.NetworkCounterSnapshot{Interface: "wlan0", BytesSent: 1000 + 128*1024, BytesRecv: 500}

	down, up, ok := NetworkRates(prev, cur)
	if !ok {
		t.Fatal("expected rates for matching interfaces")
	}
	if down != 0 {
		t.Errorf("expected download clamped to 0, got %v", down)
	}
	if up != 1 {
		t.Errorf("expected upload 1 Mbps, got %v", up)
	}

	if _, _, ok := NetworkRates(prev, models.NetworkCounterSnapshot{Interface: "eth0"}); ok {
		t.Error("expected mismatch for different interfaces")
	}
}

func TestNetworkRates_IdenticalSnapshots(t *testing.T) {
	snap := models.NetworkCounterSnapshot{Interface: "eth0", BytesSent: 42, BytesRecv: 4242}
	for i := 0; i < 3; i++ {
		down, up, ok := NetworkRates(snap, snap)
		if !ok || down != 0 || up != 0 {
			t.Fatalf("expected zero rates, got down=%v up=%v ok=%v", down, up, ok)
		}
	}
}

func TestSelectPrimaryInterface(t *testing.T) {
	tests := []struct {
		name   string
		ifaces []models.NetInterface
		want   string
	}{
		{
			name: "wireless preferred over wired",
			ifaces: []models.NetInterface{
				{Name: "eth0", Addrs: []string{"10.0.0.2/24"}},
				{Name: "wlan0", Addrs: []string{"192.168.1.5/24"}},
			},
			want: "wlan0",
		},
		{
			name: "wired when no wireless",
			ifaces: []models.NetInterface{
				{Name: "docker0", Addrs: []string{"172.17.0.1/16"}},
				{Name: "Ethernet 2", Addrs: []string{"10.0.0.2/24"}},
			},
			want: "Ethernet 2",
		},
		{
			name: "wireless without IPv4 is skipped",
			ifaces: []models.NetInterface{
				{Name: "Wi-Fi", Addrs: []string{"fe80::1/64"}},
				{Name: "eth1", Addrs: []string{"10.1.1.1/8"}},
			},
			want: "eth1",
		},
		{
			name: "first routable when no keyword matches",
			ifaces: []models.NetInterface{
				{Name: "lo", Addrs: []string{"127.0.0.1/8"}},
				{Name: "enp3s0", Addrs: []string{"192.168.0.10/24"}},
				{Name: "tun0", Addrs: []string{"10.8.0.1/24"}},
			},
			want: "enp3s0",
		},
		{
			name: "bare addresses are accepted",
			ifaces: []models.NetInterface{
				{Name: "wlp2s0", Addrs: []string{"192.168.0.10"}},
			},
			want: "wlp2s0",
		},
		{
			name: "loopback only",
			ifaces: []models.NetInterface{
				{Name: "lo", Addrs: []string{"127.0.0.1/8", "::1/128"}},
			},
			want: models.UnknownInterface,
		},
		{
			name:   "no interfaces",
			ifaces: nil,
			want:   models.UnknownInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectPrimaryInterface(tt.ifaces); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
