package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openchami/fleet-parity/pkg/fleet"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/openchami/fleet-parity/pkg/parity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExport() FleetExport {
	hosts := nodes.NewFleet()
	hosts.Add("a.example.org", &nodes.HostRecord{
		Hostname:    "a.example.org",
		BMCAddress:  "10.1.1.5",
		OSVersion:   nodes.CentOS9,
		MACAddress:  "aa:00:00:00:00:01",
		IPv4Address: "10.0.0.1",
		Interfaces: []nodes.NetworkInterface{
			{InterfaceName: "eth0", ConfigFile: "ifcfg-eth0", MACAddress: "aa:00:00:00:00:01", IPv4Address: "10.0.0.1"},
		},
	})
	hosts.Add("vm.example.org", &nodes.HostRecord{Hostname: "vm.example.org", OSVersion: nodes.CentOS7, IsVirtualMachine: true})
	issues := fleet.Report{Issues: []fleet.Issue{{Kind: fleet.ParseFailure, Host: "broken.example.org", Message: "Error parsing YAML file broken.yaml: boom"}}}
	result := parity.Result{
		Violations: []parity.Violation{
			{Rule: parity.MissingIPv6, Host: "a.example.org", Interface: "eth0", Message: "Interface ifcfg-eth0 in node a.example.org is missing an IPV6 address."},
		},
		Skipped: []string{"vm.example.org"},
	}
	return New("run-1", hosts, issues, result)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleExport().WriteText(&buf))
	assert.Equal(t, "Parity Check Failures:\nInterface ifcfg-eth0 in node a.example.org is missing an IPV6 address.\n", buf.String())

	buf.Reset()
	clean := New("run-2", nodes.NewFleet(), fleet.Report{}, parity.Result{})
	require.NoError(t, clean.WriteText(&buf))
	assert.Equal(t, "All parity checks passed.\n", buf.String())
	assert.False(t, clean.Failed())
}

func TestNewNeverNull(t *testing.T) {
	e := New("run-1", nodes.NewFleet(), fleet.Report{}, parity.Result{})
	var buf bytes.Buffer
	require.NoError(t, e.WriteJSON(&buf))
	assert.JSONEq(t, `{"run_id":"run-1","hosts":[],"issues":[],"violations":[],"skipped":[]}`, buf.String())

	sample := sampleExport()
	assert.NotNil(t, sample.Hosts[1].Interfaces)
}

func TestValidateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleExport().WriteJSON(&buf))
	assert.NoError(t, Validate(buf.Bytes()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing hosts", `{"run_id":"r","issues":[],"violations":[],"skipped":[]}`},
		{"bad os version", `{"run_id":"r","hosts":[{"hostname":"a","declared_hostname":"","network_hostname":"","bmc_address":"","interfaces":[],"os_version":"windows","chassis":"","is_vm":false,"location":"","mac_address":"","ipv4_address":"","ipv6_address":""}],"issues":[],"violations":[],"skipped":[]}`},
		{"bad issue kind", `{"run_id":"r","hosts":[],"issues":[{"kind":"oops","host":"a","message":"m"}],"violations":[],"skipped":[]}`},
		{"null skipped", `{"run_id":"r","hosts":[],"issues":[],"violations":[],"skipped":null}`},
		{"empty run id", `{"run_id":"","hosts":[],"issues":[],"violations":[],"skipped":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Problems)
		})
	}
}

func TestValidateMalformedJSON(t *testing.T) {
	err := Validate([]byte(`{"run_id":`))
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	assert.Len(t, schemas, 3)
	for _, name := range []string{"HostRecord.json", "NetworkInterface.json", "FleetExport.json"} {
		assert.NotNil(t, schemas[name], name)
	}
}
