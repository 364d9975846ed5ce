package services

import (
	"net"
	"strings"

	"pcdash/internal/models"
)

// bitsPerMegabit converts a byte delta to Mbps over a one second interval
const bitsPerMegabit = 1024 * 1024

var (
	wifiKeywords     = []string{"wifi", "wlan", "wireless", "wi-fi", "wireless lan"}
	ethernetKeywords = []string{"ethernet", "eth", "lan", "local", "internet"}
)

// RateMbps converts the growth of a cumulative byte counter across one sampling
// interval to megabits per second. A counter that went backwards (reset or wrap)
// yields 0.
func RateMbps(previous, current uint64) float64 {
	if current < previous {
		return 0
	}
	return float64(current-previous) * 8 / bitsPerMegabit
}

// NetworkRates derives download and upload rates from two consecutive snapshots.
// ok is false when the snapshots belong to different interfaces.
func NetworkRates(previous, current models.NetworkCounterSnapshot) (download, upload float64, ok bool) {
	if previous.Interface != current.Interface {
		return 0, 0, false
	}
	return RateMbps(previous.BytesRecv, current.BytesRecv), RateMbps(previous.BytesSent, current.BytesSent), true
}

// SelectPrimaryInterface picks the interface the network panel follows.
// Among interfaces with a non-loopback IPv4 address it prefers wireless names,
// then wired names, then the first such interface at all.
func SelectPrimaryInterface(ifaces []models.NetInterface) string {
	var candidates []models.NetInterface
	for _, iface := range ifaces {
		if hasRoutableIPv4(iface.Addrs) {
			candidates = append(candidates, iface)
		}
	}

	for _, keywords := range [][]string{wifiKeywords, ethernetKeywords} {
		for _, iface := range candidates {
			if nameMatches(iface.Name, keywords) {
				return iface.Name
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0].Name
	}
	return models.UnknownInterface
}

func nameMatches(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func hasRoutableIPv4(addrs []string) bool {
	for _, a := range addrs {
		ip := parseAddr(a)
		if ip == nil || ip.To4() == nil {
			continue
		}
		if !ip.IsLoopback() {
			return true
		}
	}
	return false
}

// parseAddr accepts "192.168.1.2/24" as well as a bare "192.168.1.2".
func parseAddr(a string) net.IP {
	if ip, _, err := net.ParseCIDR(a); err == nil {
		return ip
	}
	return net.ParseIP(a)
}
