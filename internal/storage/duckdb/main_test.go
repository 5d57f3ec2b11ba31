package duckdb

import (
	"context"
	"testing"

	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsStoredAsText(t *testing.T) {
	d, err := NewDuckDBStorage("")
	require.NoError(t, err)
	defer d.Close()

	var dataType string
	require.NoError(t, d.db.QueryRow(`SELECT data_type FROM information_schema.columns WHERE table_name = 'hosts' AND column_name = 'data'`).Scan(&dataType))
	assert.Equal(t, "VARCHAR", dataType)

	host := nodes.HostRecord{
		Hostname:   "a.example.org",
		BMCAddress: "10.1.1.1",
		Interfaces: []nodes.NetworkInterface{
			{InterfaceName: "eth0", ConfigFile: "ifcfg-eth0", MACAddress: "aa:00:00:00:00:01", IPv4Address: "10.0.0.1"},
		},
	}
	require.NoError(t, d.SaveHost(host))

	got, err := d.GetHost("a.example.org")
	require.NoError(t, err)
	assert.Equal(t, host, got)
}

func TestRestoreFromSnapshot(t *testing.T) {
	root := t.TempDir()

	d, err := NewDuckDBStorage("")
	require.NoError(t, err)
	require.NoError(t, d.SaveHost(nodes.HostRecord{Hostname: "a.example.org", BMCAddress: "10.1.1.1"}))
	require.NoError(t, d.SaveHost(nodes.HostRecord{Hostname: "b.example.org", BMCAddress: "10.1.1.2"}))
	_, err = d.SnapshotParquet(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	restored, err := NewDuckDBStorage("", WithRestore(root))
	require.NoError(t, err)
	defer restored.Close()

	hosts, err := restored.SearchHosts()
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "a.example.org", hosts[0].Hostname)
	assert.Equal(t, "10.1.1.2", hosts[1].BMCAddress)
}
