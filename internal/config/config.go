package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fleet-parity configuration file.
type Config struct {
	PuppetData     string            `yaml:"puppet_data"`
	Logging        LoggingConfig     `yaml:"logging"`
	OSTemplates    map[string]string `yaml:"os_templates"`
	VirtualChassis []string          `yaml:"virtual_chassis"`
	Sites          []Site            `yaml:"sites"`
	Checks         ChecksConfig      `yaml:"checks"`
	Server         ServerConfig      `yaml:"server"`
	Storage        StorageConfig     `yaml:"storage"`
	Journal        JournalConfig     `yaml:"journal"`
}

// Site maps a substring of a site_tier_0 link target to a location label.
type Site struct {
	Match    string `yaml:"match"`
	Name     string `yaml:"name"`
	Building string `yaml:"building"`
}

// Label is the location string stored on host records.
func (s Site) Label() string {
	return s.Building + " " + s.Name
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ChecksConfig struct {
	Extended bool `yaml:"extended"`
}

type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	JWTSecret      string   `yaml:"jwt_secret"`
	RequiredClaims []string `yaml:"required_claims"`
}

type StorageConfig struct {
	Backend          string        `yaml:"backend"`
	DuckDBPath       string        `yaml:"duckdb_path"`
	ExportDir        string        `yaml:"export_dir"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	Restore          bool          `yaml:"restore"`
}

// JournalConfig enables the findings journal when Dir is set.
type JournalConfig struct {
	Dir           string        `yaml:"dir"`
	DuckDBPath    string        `yaml:"duckdb_path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Retain        bool          `yaml:"retain"`
}

// DefaultSites is the site table used when the file has none.
var DefaultSites = []Site{
	{Match: "3370a", Name: "CS3370a", Building: "Computer Sciences"},
	{Match: "2360", Name: "CS2360", Building: "Computer Sciences"},
	{Match: "b240", Name: "CSB240", Building: "Computer Sciences"},
	{Match: "oneneck", Name: "OneNeck", Building: "OneNeck"},
	{Match: "wid", Name: "WID", Building: "WID"},
	{Match: "fiu", Name: "FIU", Building: "FIU"},
	{Match: "syra", Name: "Syracuse", Building: "Syracuse"},
	{Match: "syrb", Name: "CS2360", Building: "Computer Sciences"},
	{Match: "wisc", Name: "CS2360", Building: "Computer Sciences"},
	{Match: "unl", Name: "UNL", Building: "UNL"},
}

func Default() *Config {
	return &Config{
		PuppetData: "../puppet_data",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		VirtualChassis: []string{"kvm_guest.yaml"},
		Sites:          append([]Site(nil), DefaultSites...),
		Server: ServerConfig{
			Listen:         ":8080",
			RequiredClaims: []string{"sub", "iss", "aud"},
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "duckdb":
	default:
		return fmt.Errorf("invalid storage backend %q, should be 'memory' or 'duckdb'", c.Storage.Backend)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q, should be 'console' or 'json'", c.Logging.Format)
	}
	if c.Storage.Backend != "duckdb" && (c.Storage.ExportDir != "" || c.Storage.SnapshotInterval > 0 || c.Storage.Restore) {
		return fmt.Errorf("export_dir, snapshot_interval and restore need the duckdb storage backend")
	}
	if (c.Storage.SnapshotInterval > 0 || c.Storage.Restore) && c.Storage.ExportDir == "" {
		return fmt.Errorf("snapshots need storage.export_dir")
	}
	for i, site := range c.Sites {
		if site.Match == "" {
			return fmt.Errorf("site %d has an empty match", i)
		}
	}
	return nil
}
