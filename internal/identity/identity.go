// Package identity derives a client instance's well-known endpoint
// addresses from its (ip, thread-id) pair. Every function here is pure
// string formatting: no sockets are opened, no DNS is resolved, except
// InferLocalIP which performs the one-shot local-hostname lookup the
// source falls back to when no IP is configured explicitly.
package identity

import (
	"fmt"
	"net"
	"os"
)

// Base ports for the two pull endpoints a client owns.
const (
	RequestPullingBasePort = 6460
	KeyAddressBasePort     = 6760
)

// Routing-tier ports: one fixed port in local mode, four candidate
// ports in cluster mode.
var (
	RoutingPortsLocal   = []int{6450}
	RoutingPortsCluster = []int{6450, 6451, 6452, 6453}
)

// Thread identifies one client instance by its host IP and per-thread
// offset, from which every well-known endpoint address is derived.
type Thread struct {
	IP  string
	TID int
}

// NewThread constructs a Thread identity.
func NewThread(ip string, tid int) Thread {
	return Thread{IP: ip, TID: tid}
}

func (t Thread) bindAddr(basePort int) string {
	return fmt.Sprintf("tcp://*:%d", basePort+t.TID)
}

func (t Thread) connectAddr(basePort int) string {
	return fmt.Sprintf("tcp://%s:%d", t.IP, basePort+t.TID)
}

// RequestPullConnectAddr is the connect-form address a peer uses to
// reach this client's request-response pull endpoint.
func (t Thread) RequestPullConnectAddr() string { return t.connectAddr(RequestPullingBasePort) }

// RequestPullBindAddr is the wildcard-host address this client binds
// its request-response pull endpoint to.
func (t Thread) RequestPullBindAddr() string { return t.bindAddr(RequestPullingBasePort) }

// KeyAddressConnectAddr is the connect-form address a peer uses to
// reach this client's routing-response pull endpoint.
func (t Thread) KeyAddressConnectAddr() string { return t.connectAddr(KeyAddressBasePort) }

// KeyAddressBindAddr is the wildcard-host address this client binds its
// routing-response pull endpoint to.
func (t Thread) KeyAddressBindAddr() string { return t.bindAddr(KeyAddressBasePort) }

// InferLocalIP returns the host's IP address the way the source falls
// back to one when the caller supplies none: resolve the local
// hostname and take its first address. This is best-effort and is not
// meant to work correctly behind NAT or with multiple interfaces; a
// caller that cares should pass an explicit IP instead.
func InferLocalIP() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("identity: resolving local hostname: %w", err)
	}
	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return "", fmt.Errorf("identity: looking up %q: %w", hostname, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("identity: no addresses found for hostname %q", hostname)
	}
	return addrs[0], nil
}
