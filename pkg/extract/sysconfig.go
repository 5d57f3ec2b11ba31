package extract

import (
	"path"
	"strings"

	"github.com/openchami/fleet-parity/pkg/document"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/rs/zerolog/log"
)

const (
	hostnameFile    = "/etc/hostname"
	networkFile     = "/etc/sysconfig/network"
	ifcfgPrefix     = "/etc/sysconfig/network-scripts/ifcfg-"
	hostnameSetting = "HOSTNAME="
	hwaddrSetting   = "HWADDR="
	ipaddrSetting   = "IPADDR="
	ipv6addrSetting = "IPV6ADDR="
	contentKey      = "content"
	filesKey        = "file"
)

var bmcAddressPath = []string{"bmc", "lan", "ip_address"}

// sysconfig reads documents that manage files under /etc/sysconfig: the
// hostname and network files plus one ifcfg file per interface.
func sysconfig(doc document.Node) Result {
	var r Result

	r.BMCAddress, _ = doc.LookupString(bmcAddressPath...)

	files, ok := doc.Get(filesKey)
	if !ok {
		return r
	}

	if content, ok := files.Lookup(hostnameFile, contentKey); ok {
		r.DeclaredHostname, _ = document.Active(content.Candidates())
	}
	if content, ok := files.Lookup(networkFile, contentKey); ok {
		r.NetworkHostname, _ = document.ActiveSetting(content.Candidates(), hostnameSetting)
	}

	for _, file := range files.Entries() {
		if !strings.HasPrefix(file.Key, ifcfgPrefix) {
			continue
		}
		content, ok := file.Value.Get(contentKey)
		if !ok {
			continue
		}
		name := strings.TrimPrefix(file.Key, ifcfgPrefix)
		if name == "" {
			log.Debug().Str("file", file.Key).Msg("Skipping ifcfg file without interface name")
			continue
		}
		r.Interfaces = append(r.Interfaces, ifcfg(name, path.Base(file.Key), content.Candidates()))
	}

	return r
}

func ifcfg(name, configFile string, lines []document.Candidate) nodes.NetworkInterface {
	iface := nodes.NetworkInterface{
		InterfaceName: name,
		ConfigFile:    configFile,
	}
	iface.MACAddress, _ = document.ActiveSetting(lines, hwaddrSetting)
	iface.IPv4Address, _ = document.ActiveSetting(lines, ipaddrSetting)
	iface.IPv6Address, _ = document.ActiveSetting(lines, ipv6addrSetting)
	return iface
}
