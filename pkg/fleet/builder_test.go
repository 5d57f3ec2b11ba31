package fleet

import (
	"errors"
	"testing"

	"github.com/openchami/fleet-parity/pkg/document"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const node1 = `
bmc:
  lan:
    ip_address: 10.1.1.5
file:
  /etc/hostname:
    content:
      a:
        node1: true
  /etc/sysconfig/network-scripts/ifcfg-custom0:
    content:
      a:
        HWADDR=aa:bb:cc:00:00:01: true
        IPADDR=10.0.0.1: true
  /etc/sysconfig/network-scripts/ifcfg-eth0:
    content:
      a:
        IPADDR=10.0.0.2: true
        IPV6ADDR=2001:db8::2: true
`

func mustParse(t *testing.T, text string) document.Node {
	t.Helper()
	doc, err := document.Parse([]byte(text))
	require.NoError(t, err)
	return doc
}

func centos9(hosts ...string) Templates {
	templates := Templates{}
	for _, h := range hosts {
		templates[h] = HostTemplates{Chassis: "r640.yaml", OS: "centos_9_stream.yaml", Location: "Computer Sciences CS2360"}
	}
	return templates
}

func TestBuildRecord(t *testing.T) {
	docs := []HostDocument{{Hostname: "node1.example.org", Source: "node/node1.yaml", Document: mustParse(t, node1)}}
	templates := centos9("node1.example.org")

	fleet, report := Build(docs, templates, templates, templates)
	assert.Empty(t, report.Issues)
	require.Equal(t, 1, fleet.Len())

	record, ok := fleet.Get("node1.example.org")
	require.True(t, ok)
	assert.Equal(t, "node1", record.DeclaredHostname)
	assert.Equal(t, "10.1.1.5", record.BMCAddress)
	assert.Equal(t, nodes.CentOS9, record.OSVersion)
	assert.Equal(t, "r640", record.Chassis)
	assert.False(t, record.IsVirtualMachine)
	assert.Equal(t, "Computer Sciences CS2360", record.Location)
	assert.Len(t, record.Interfaces, 2)

	assert.Equal(t, "aa:bb:cc:00:00:01", record.MACAddress, "mac comes from custom0")
	assert.Equal(t, "10.0.0.2", record.IPv4Address, "later non-empty value wins")
	assert.Equal(t, "2001:db8::2", record.IPv6Address)
}

func TestParseFailureSkipsHost(t *testing.T) {
	docs := []HostDocument{
		{Hostname: "bad.example.org", Source: "node/bad.yaml", Err: errors.New("mapping values are not allowed")},
		{Hostname: "node1.example.org", Source: "node/node1.yaml", Document: mustParse(t, node1)},
	}
	templates := centos9("bad.example.org", "node1.example.org")

	fleet, report := Build(docs, templates, templates, templates)
	assert.Equal(t, []string{"node1.example.org"}, fleet.Hostnames())
	assert.Equal(t, []string{"bad.example.org"}, report.Skipped())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, ParseFailure, report.Issues[0].Kind)
	assert.Contains(t, report.Issues[0].Message, "node/bad.yaml")
}

func TestUnknownTemplatesAreWarnings(t *testing.T) {
	docs := []HostDocument{{Hostname: "vm1.example.org", Source: "node/vm1.yaml", Document: mustParse(t, node1)}}
	templates := Templates{"vm1.example.org": {OS: "ubuntu_22.yaml"}}

	fleet, report := Build(docs, templates, templates, templates)
	record, ok := fleet.Get("vm1.example.org")
	require.True(t, ok)

	assert.Equal(t, nodes.OSUnknown, record.OSVersion)
	assert.Empty(t, record.Chassis)
	assert.Empty(t, record.BMCAddress)
	assert.Empty(t, record.Interfaces)
	assert.NotNil(t, record.Interfaces)
	assert.Empty(t, record.MACAddress)
	assert.Empty(t, record.IPv4Address)
	assert.Empty(t, record.IPv6Address)

	assert.Equal(t, 1, report.Count(UnknownChassis))
	assert.Equal(t, 1, report.Count(UnknownOSTemplate))
	assert.Equal(t, 1, report.Count(UnsupportedOSFamily))
	assert.Equal(t, 0, report.Count(ParseFailure))
}

func TestBaseTemplateIsKnownButUnsupported(t *testing.T) {
	docs := []HostDocument{{Hostname: "n.example.org", Document: mustParse(t, node1)}}
	templates := Templates{"n.example.org": {Chassis: "r640.yaml", OS: "centos.yaml"}}

	fleet, report := Build(docs, templates, templates, templates)
	record, _ := fleet.Get("n.example.org")
	assert.Equal(t, nodes.CentOS, record.OSVersion)
	assert.Equal(t, 0, report.Count(UnknownOSTemplate))
	assert.Equal(t, 1, report.Count(UnsupportedOSFamily))
}

func TestHostnameMismatch(t *testing.T) {
	cases := map[string]int{
		"node1.example.org": 0,
		"other.example.org": 1,
	}
	for hostname, want := range cases {
		docs := []HostDocument{{Hostname: hostname, Document: mustParse(t, node1)}}
		templates := centos9(hostname)

		fleet, report := Build(docs, templates, templates, templates)
		assert.Equal(t, want, report.Count(HostnameMismatch), hostname)
		assert.Equal(t, 1, fleet.Len(), "mismatch never blocks the record")
	}
}

func TestVirtualChassis(t *testing.T) {
	docs := []HostDocument{{Hostname: "vm.example.org", Document: mustParse(t, "")}}
	templates := Templates{"vm.example.org": {Chassis: "kvm_guest.yaml", Virtual: true, OS: "centos_7.yaml"}}

	fleet, report := Build(docs, templates, templates, templates)
	record, _ := fleet.Get("vm.example.org")
	assert.Equal(t, "kvm_guest", record.Chassis)
	assert.True(t, record.IsVirtualMachine)
	assert.Equal(t, nodes.CentOS7, record.OSVersion)
	assert.Empty(t, report.Issues)
	assert.True(t, record.Empty())
}

func TestDuplicateHostnameReplacesInPlace(t *testing.T) {
	docs := []HostDocument{
		{Hostname: "a.example.org", Document: mustParse(t, "")},
		{Hostname: "b.example.org", Document: mustParse(t, "")},
		{Hostname: "a.example.org", Document: mustParse(t, node1)},
	}
	templates := centos9("a.example.org", "b.example.org")

	fleet, _ := Build(docs, templates, templates, templates)
	assert.Equal(t, []string{"a.example.org", "b.example.org"}, fleet.Hostnames())
	record, _ := fleet.Get("a.example.org")
	assert.Equal(t, "10.1.1.5", record.BMCAddress)
}

func TestBuildIsIdempotent(t *testing.T) {
	docs := []HostDocument{
		{Hostname: "node1.example.org", Document: mustParse(t, node1)},
		{Hostname: "node2.example.org", Document: mustParse(t, node1)},
		{Hostname: "node3.example.org", Err: errors.New("broken")},
	}
	templates := centos9("node1.example.org", "node2.example.org", "node3.example.org")

	first, firstReport := Build(docs, templates, templates, templates)
	second, secondReport := Build(docs, templates, templates, templates)
	assert.Equal(t, first.Hostnames(), second.Hostnames())
	assert.Equal(t, first.Records(), second.Records())
	assert.Equal(t, firstReport, secondReport)
}
