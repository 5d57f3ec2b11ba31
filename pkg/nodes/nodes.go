package nodes

import (
	"strings"

	"github.com/invopop/jsonschema"
)

// OSVersion identifies the operating system generation of a host.
type OSVersion string

const (
	OSUnknown OSVersion = ""
	CentOS    OSVersion = "centos" // base template, never linked on purpose
	CentOS7   OSVersion = "centos_7"
	CentOS8   OSVersion = "centos_8"
	CentOS9   OSVersion = "centos_9"
)

// String returns the string representation of OSVersion.
func (o OSVersion) String() string {
	return string(o)
}

// JSONSchema for OSVersion to enforce enum and description.
func (OSVersion) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        []interface{}{"", "centos", "centos_7", "centos_8", "centos_9"},
		Title:       "OSVersion",
		Description: "Operating system generation resolved from the os_tier_1 template. Empty when the template is unknown.",
	}
}

// HostRecord is the normalized, fleet-relevant configuration of one host.
type HostRecord struct {
	Hostname         string             `json:"hostname" jsonschema:"required"`
	DeclaredHostname string             `json:"declared_hostname"`
	NetworkHostname  string             `json:"network_hostname"`
	BMCAddress       string             `json:"bmc_address" format:"ipv4"`
	Interfaces       []NetworkInterface `json:"interfaces"`
	OSVersion        OSVersion          `json:"os_version"`
	Chassis          string             `json:"chassis"`
	IsVirtualMachine bool               `json:"is_vm"`
	Location         string             `json:"location"`
	MACAddress       string             `json:"mac_address"`
	IPv4Address      string             `json:"ipv4_address"`
	IPv6Address      string             `json:"ipv6_address"`
}

// NetworkInterface is one interface configuration file found for a host.
// Absent values are empty strings.
type NetworkInterface struct {
	InterfaceName string `json:"interface_name" jsonschema:"required,minLength=1"`
	ConfigFile    string `json:"config_file"`
	MACAddress    string `json:"mac_address"`
	IPv4Address   string `json:"ipv4_address"`
	IPv6Address   string `json:"ipv6_address"`
}

// Interface returns the interface with the given name.
func (h *HostRecord) Interface(name string) (NetworkInterface, bool) {
	for _, iface := range h.Interfaces {
		if iface.InterfaceName == name {
			return iface, true
		}
	}
	return NetworkInterface{}, false
}

// Empty reports whether nothing could be extracted for the host.
func (h *HostRecord) Empty() bool {
	return h == nil ||
		(h.DeclaredHostname == "" && h.NetworkHostname == "" && h.BMCAddress == "" && len(h.Interfaces) == 0)
}

// ShortName returns the first label of the hostname.
func (h *HostRecord) ShortName() string {
	short, _, _ := strings.Cut(h.Hostname, ".")
	return short
}
