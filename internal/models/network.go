package models

import "time"

// UnknownInterface is reported when no usable interface could be selected
const UnknownInterface = "Unknown"

// NetworkCounterSnapshot is one cumulative counter reading of a single interface
type NetworkCounterSnapshot struct {
	Interface string    `json:"interface"`
	BytesSent uint64    `json:"bytes_sent"`
	BytesRecv uint64    `json:"bytes_recv"`
	Timestamp time.Time `json:"timestamp"`
}

// NetInterface is a network interface with its configured addresses (CIDR or bare IP)
type NetInterface struct {
	Name  string   `json:"name"`
	Addrs []string `json:"addrs"`
}

// NetworkInfo describes the interface the network panel follows
type NetworkInfo struct {
	Interface string `json:"interface"`
}
