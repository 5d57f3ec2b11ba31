package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotParquet(t *testing.T) {
	d, err := NewDuckDBStorage("")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.SaveHost(nodes.HostRecord{Hostname: "a.example.org", BMCAddress: "10.1.1.1"}))

	root := t.TempDir()
	dir, err := d.SnapshotParquet(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(dir))

	for _, name := range []string{"schema.sql", "load.sql"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	latest, err := findMostRecentSnapshotDir(root)
	require.NoError(t, err)
	assert.Equal(t, dir, latest)
}

func TestFindMostRecentSnapshotDir(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2024-01-02T10-00-00", "2024-03-01T09-00-00", "2023-12-31T23-59-59"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "zzz.txt"), nil, 0o644))

	latest, err := findMostRecentSnapshotDir(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024-03-01T09-00-00"), latest)

	_, err = findMostRecentSnapshotDir(t.TempDir())
	assert.Error(t, err)
}
