package puppetdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openchami/fleet-parity/internal/config"
	"github.com/openchami/fleet-parity/pkg/document"
	"github.com/openchami/fleet-parity/pkg/fleet"
	"github.com/rs/zerolog/log"
)

const (
	nodeDir    = "node"
	chassisDir = "chassis"
	osDir      = "os_tier_1"
	siteDir    = "site_tier_0"
	yamlExt    = ".yaml"
)

// Tree is a puppet_data checkout. It reads host documents from node/ and
// resolves chassis, OS template and site through the symlinks in the tier
// directories. Tree implements the fleet resolver interfaces.
type Tree struct {
	root      string
	sites     []config.Site
	virtual   map[string]bool
	files     map[string]string
	locations map[string]string
}

type Option func(*Tree)

// WithSites replaces the site table used to label locations.
func WithSites(sites []config.Site) Option {
	return func(t *Tree) {
		t.sites = sites
	}
}

// WithVirtualChassis sets the chassis template names that mean virtual
// machine.
func WithVirtualChassis(names []string) Option {
	return func(t *Tree) {
		t.virtual = make(map[string]bool, len(names))
		for _, name := range names {
			t.virtual[name] = true
		}
	}
}

func Open(root string, opts ...Option) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open puppet data: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open puppet data: %s is not a directory", root)
	}

	t := &Tree{
		root:  root,
		sites: config.DefaultSites,
		files: make(map[string]string),
	}
	WithVirtualChassis([]string{"kvm_guest.yaml"})(t)
	for _, opt := range opts {
		opt(t)
	}

	t.locations = t.readLocations()
	return t, nil
}

// Documents reads every *.yaml file in node/ in file name order. Files that
// cannot be read or parsed are returned with Err set.
func (t *Tree) Documents() ([]fleet.HostDocument, error) {
	dir := filepath.Join(t.root, nodeDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read node directory: %w", err)
	}

	var docs []fleet.HostDocument
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), yamlExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc := fleet.HostDocument{
			Hostname: strings.TrimSuffix(filepath.Base(realpath(path)), yamlExt),
			Source:   path,
		}
		t.files[doc.Hostname] = entry.Name()

		content, err := os.ReadFile(path)
		if err != nil {
			doc.Err = err
			docs = append(docs, doc)
			continue
		}
		doc.Document, doc.Err = document.Parse([]byte(Preprocess(string(content))))
		docs = append(docs, doc)
	}

	log.Info().Str("path", dir).Int("documents", len(docs)).Msg("Read node documents")
	return docs, nil
}

// Preprocess repairs content that puppet writes but YAML parsers reject:
// tabs become four spaces and \' becomes '.
func Preprocess(content string) string {
	content = strings.ReplaceAll(content, "\t", "    ")
	return strings.ReplaceAll(content, `\'`, `'`)
}

// Chassis returns the chassis template the host's chassis link points to.
func (t *Tree) Chassis(hostname string) (string, bool) {
	template := t.template(chassisDir, hostname)
	return template, t.virtual[template]
}

// OSTemplate returns the OS template the host's os_tier_1 link points to.
func (t *Tree) OSTemplate(hostname string) string {
	return t.template(osDir, hostname)
}

func (t *Tree) Location(hostname string) string {
	return t.locations[hostname]
}

func (t *Tree) template(tier, hostname string) string {
	file, ok := t.files[hostname]
	if !ok {
		return ""
	}
	path := filepath.Join(t.root, tier, file)
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Unresolved template link")
		return ""
	}
	return filepath.Base(resolved)
}

// readLocations labels each host in site_tier_0 with the last site whose
// match string occurs in the link target.
func (t *Tree) readLocations() map[string]string {
	locations := make(map[string]string)
	dir := filepath.Join(t.root, siteDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("path", dir).Msg("No site data, locations will be empty")
		return locations
	}

	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Debug().Err(err).Str("entry", entry.Name()).Msg("Skipping site entry that is not a link")
			continue
		}
		for _, site := range t.sites {
			if strings.Contains(target, site.Match) {
				locations[strings.TrimSuffix(entry.Name(), yamlExt)] = site.Label()
			}
		}
	}
	return locations
}

func realpath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}
