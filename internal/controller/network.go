package controller

import (
	"net"

	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// NetworkStatus is the connectivity part of a state message.
type NetworkStatus struct {
	Connected bool
	APMode    bool
	IP        string
}

// NetworkInfo reports connectivity.
type NetworkInfo interface {
	Status(cfg settings.Configuration) NetworkStatus
}

// HostNetwork reports the host's first non-loopback IPv4 address. The hub
// is in AP mode when no station network is configured.
type HostNetwork struct{}

// Status implements NetworkInfo.
func (HostNetwork) Status(cfg settings.Configuration) NetworkStatus {
	ip := firstIPv4()
	return NetworkStatus{
		Connected: ip != "",
		APMode:    !cfg.HasWiFi(),
		IP:        ip,
	}
}

func firstIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// StaticNetwork returns a fixed status.
type StaticNetwork NetworkStatus

// Status implements NetworkInfo.
func (s StaticNetwork) Status(settings.Configuration) NetworkStatus {
	return NetworkStatus(s)
}
