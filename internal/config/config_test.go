package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "../puppet_data", cfg.PuppetData)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, []string{"kvm_guest.yaml"}, cfg.VirtualChassis)
	assert.Len(t, cfg.Sites, 10)
	assert.Equal(t, "Computer Sciences CS2360", cfg.Sites[1].Label())
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet-parity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
puppet_data: /srv/puppet_data
logging:
  level: debug
  format: json
os_templates:
  rocky_9.yaml: centos_9
sites:
  - match: dc1
    name: Hall A
    building: Datacenter
checks:
  extended: true
storage:
  backend: duckdb
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/puppet_data", cfg.PuppetData)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "centos_9", cfg.OSTemplates["rocky_9.yaml"])
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "Datacenter Hall A", cfg.Sites[0].Label())
	assert.True(t, cfg.Checks.Extended)
	assert.Equal(t, "duckdb", cfg.Storage.Backend)
	assert.Equal(t, ":8080", cfg.Server.Listen, "unset keys keep their defaults")
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage:\n  backend: postgres\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "invalid storage backend")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("sites: [\n"), 0o644))
	_, err = Load(broken)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadSnapshotSettings(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("storage:\n  backend: duckdb\n  export_dir: /var/lib/fleet-parity\n  snapshot_interval: 15m\n"), 0o644))
	cfg, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Storage.SnapshotInterval)

	memory := filepath.Join(dir, "memory.yaml")
	require.NoError(t, os.WriteFile(memory, []byte("storage:\n  export_dir: /tmp\n  restore: true\n"), 0o644))
	_, err = Load(memory)
	assert.ErrorContains(t, err, "duckdb storage backend")

	nodir := filepath.Join(dir, "nodir.yaml")
	require.NoError(t, os.WriteFile(nodir, []byte("storage:\n  backend: duckdb\n  snapshot_interval: 1h\n"), 0o644))
	_, err = Load(nodir)
	assert.ErrorContains(t, err, "export_dir")
}
