// Package mdns answers multicast DNS queries for <deviceName>.local so
// the hub is reachable by name on the local network.
package mdns
