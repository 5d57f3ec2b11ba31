package fleet

import "github.com/openchami/fleet-parity/pkg/nodes"

// FallbackInterfaces are considered after the document's own interface
// order. Names already visited are not visited again.
var FallbackInterfaces = []string{"em1", "eth0", "ib0"}

// Primary holds the representative addresses of a host.
type Primary struct {
	MACAddress  string
	IPv4Address string
	IPv6Address string
}

// SelectPrimary walks the interfaces in document order followed by the
// fallback names and keeps, for each field on its own, the last non-empty
// value seen. The three fields can therefore come from different interfaces.
func SelectPrimary(interfaces []nodes.NetworkInterface) Primary {
	var p Primary

	byName := make(map[string]nodes.NetworkInterface, len(interfaces))
	order := make([]string, 0, len(interfaces)+len(FallbackInterfaces))
	for _, iface := range interfaces {
		if _, seen := byName[iface.InterfaceName]; !seen {
			order = append(order, iface.InterfaceName)
		}
		byName[iface.InterfaceName] = iface
	}
	order = append(order, FallbackInterfaces...)

	visited := make(map[string]bool, len(order))
	for _, name := range order {
		iface, ok := byName[name]
		if !ok || visited[name] {
			continue
		}
		visited[name] = true

		if iface.MACAddress != "" {
			p.MACAddress = iface.MACAddress
		}
		if iface.IPv4Address != "" {
			p.IPv4Address = iface.IPv4Address
		}
		if iface.IPv6Address != "" {
			p.IPv6Address = iface.IPv6Address
		}
	}
	return p
}
