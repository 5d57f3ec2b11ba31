package parity

import (
	"fmt"
	"net"
	"strings"

	"github.com/mdlayher/netx/eui64"
	"github.com/openchami/fleet-parity/pkg/nodes"
)

// primaryNICPrefix marks the ethernet interfaces that must carry a HWADDR.
const primaryNICPrefix = "eth"

type hostOnly struct{}

func (hostOnly) Interface(*Run, string, *nodes.HostRecord, nodes.NetworkInterface) {}

type interfaceOnly struct{}

func (interfaceOnly) Host(*Run, string, *nodes.HostRecord) {}

type uniqueBMC struct{ hostOnly }

func (uniqueBMC) Host(run *Run, hostname string, record *nodes.HostRecord) {
	if record.BMCAddress == "" || !run.Seen(DuplicateBMCAddress, record.BMCAddress) {
		return
	}
	run.Report(Violation{
		Rule:    DuplicateBMCAddress,
		Host:    hostname,
		Message: fmt.Sprintf("Duplicate BMC address detected: %s in node %s", record.BMCAddress, hostname),
	})
}

type uniqueAddress struct {
	interfaceOnly
	rule    RuleID
	label   string
	address func(nodes.NetworkInterface) string
}

func (u uniqueAddress) Interface(run *Run, hostname string, _ *nodes.HostRecord, iface nodes.NetworkInterface) {
	addr := u.address(iface)
	if addr == "" || !run.Seen(u.rule, addr) {
		return
	}
	run.Report(Violation{
		Rule:      u.rule,
		Host:      hostname,
		Interface: iface.InterfaceName,
		Message:   fmt.Sprintf("Duplicate %s address detected: %s in node %s", u.label, addr, hostname),
	})
}

type primaryNICHWAddr struct{ interfaceOnly }

func (primaryNICHWAddr) Interface(run *Run, hostname string, _ *nodes.HostRecord, iface nodes.NetworkInterface) {
	if !strings.HasPrefix(configFile(iface), "ifcfg-"+primaryNICPrefix) || iface.MACAddress != "" {
		return
	}
	run.Report(Violation{
		Rule:      MissingHWAddr,
		Host:      hostname,
		Interface: iface.InterfaceName,
		Message:   fmt.Sprintf("Primary NIC %s in node %s has no HWADDR.", configFile(iface), hostname),
	})
}

// missingIPv6 fires for every interface without an address, virtual and
// loopback interfaces included.
type missingIPv6 struct{ interfaceOnly }

func (missingIPv6) Interface(run *Run, hostname string, _ *nodes.HostRecord, iface nodes.NetworkInterface) {
	if iface.IPv6Address != "" {
		return
	}
	run.Report(Violation{
		Rule:      MissingIPv6,
		Host:      hostname,
		Interface: iface.InterfaceName,
		Message:   fmt.Sprintf("Interface %s in node %s is missing an IPV6 address.", configFile(iface), hostname),
	})
}

type virtualMachineBMC struct{ hostOnly }

func (virtualMachineBMC) Host(run *Run, hostname string, record *nodes.HostRecord) {
	if !record.IsVirtualMachine || record.BMCAddress == "" {
		return
	}
	run.Report(Violation{
		Rule:    VirtualMachineBMC,
		Host:    hostname,
		Message: fmt.Sprintf("Virtual machine node %s has BMC address %s", hostname, record.BMCAddress),
	})
}

// eui64Rule flags IPv6 addresses that are not the modified EUI-64 address of
// the interface's MAC within the address's /64. Values that do not parse are
// left alone.
type eui64Rule struct{ interfaceOnly }

func (eui64Rule) Interface(run *Run, hostname string, _ *nodes.HostRecord, iface nodes.NetworkInterface) {
	if iface.MACAddress == "" || iface.IPv6Address == "" {
		return
	}
	mac, err := net.ParseMAC(iface.MACAddress)
	if err != nil {
		return
	}
	ip := parseIPv6(iface.IPv6Address)
	if ip == nil {
		return
	}
	want, err := eui64.ParseMAC(ip.Mask(net.CIDRMask(64, 128)), mac)
	if err != nil || want.Equal(ip) {
		return
	}
	run.Report(Violation{
		Rule:      NonEUI64IPv6,
		Host:      hostname,
		Interface: iface.InterfaceName,
		Message: fmt.Sprintf("Interface %s in node %s has IPv6 address %s which is not the EUI-64 address %s for HWADDR %s",
			configFile(iface), hostname, iface.IPv6Address, want, iface.MACAddress),
	})
}

func parseIPv6(value string) net.IP {
	addr, _, _ := strings.Cut(value, "/")
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() != nil {
		return nil
	}
	return ip
}
