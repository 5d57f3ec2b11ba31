package fleet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/openchami/fleet-parity/pkg/document"
	"github.com/openchami/fleet-parity/pkg/extract"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/rs/zerolog/log"
)

// HostDocument is one host's parsed configuration. Err is set when the
// source could not be parsed; such hosts are skipped.
type HostDocument struct {
	Hostname string
	Source   string
	Document document.Node
	Err      error
}

// ChassisResolver returns the chassis template name of a host and whether
// that template describes a virtual machine.
type ChassisResolver interface {
	Chassis(hostname string) (template string, virtual bool)
}

// OSResolver returns the OS template name of a host.
type OSResolver interface {
	OSTemplate(hostname string) string
}

// LocationResolver returns the site label of a host, or "".
type LocationResolver interface {
	Location(hostname string) string
}

// DefaultOSTemplates maps OS template file names to OS versions.
var DefaultOSTemplates = map[string]nodes.OSVersion{
	"centos_7.yaml":        nodes.CentOS7,
	"centos_8_stream.yaml": nodes.CentOS8,
	"centos_9_stream.yaml": nodes.CentOS9,
	"centos.yaml":          nodes.CentOS,
}

type Builder struct {
	extractor   *extract.Extractor
	osTemplates map[string]nodes.OSVersion
	chassis     ChassisResolver
	os          OSResolver
	location    LocationResolver
}

type BuilderOption func(*Builder)

func WithExtractor(e *extract.Extractor) BuilderOption {
	return func(b *Builder) {
		b.extractor = e
	}
}

// WithOSTemplates replaces the OS template table.
func WithOSTemplates(templates map[string]nodes.OSVersion) BuilderOption {
	return func(b *Builder) {
		b.osTemplates = templates
	}
}

func NewBuilder(chassis ChassisResolver, os OSResolver, location LocationResolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		extractor:   extract.New(),
		osTemplates: DefaultOSTemplates,
		chassis:     chassis,
		os:          os,
		location:    location,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the fleet with the default extractor and OS templates.
func Build(docs []HostDocument, chassis ChassisResolver, os OSResolver, location LocationResolver) (*nodes.Fleet, Report) {
	return NewBuilder(chassis, os, location).Build(docs)
}

// Build turns host documents into a fleet. Hosts appear in the order of
// docs; a later document for the same hostname replaces the earlier record
// in place. Problems are reported, never returned as errors.
func (b *Builder) Build(docs []HostDocument) (*nodes.Fleet, Report) {
	fleet := nodes.NewFleet()
	var report Report

	for _, doc := range docs {
		if doc.Err != nil {
			b.warn(&report, Issue{
				Kind:    ParseFailure,
				Host:    doc.Hostname,
				Source:  doc.Source,
				Message: fmt.Sprintf("Error parsing YAML file %s: %v", doc.Source, doc.Err),
			})
			continue
		}
		fleet.Add(doc.Hostname, b.record(doc, &report))
	}

	log.Debug().Int("hosts", fleet.Len()).Int("issues", len(report.Issues)).Msg("Fleet built")
	return fleet, report
}

func (b *Builder) record(doc HostDocument, report *Report) *nodes.HostRecord {
	record := &nodes.HostRecord{Hostname: doc.Hostname}

	template, virtual := b.chassis.Chassis(doc.Hostname)
	record.Chassis, record.IsVirtualMachine = chassisTag(template), virtual
	if record.Chassis == "" {
		b.warn(report, Issue{
			Kind:    UnknownChassis,
			Host:    doc.Hostname,
			Source:  doc.Source,
			Message: fmt.Sprintf("Unknown chassis template for node %s", doc.Hostname),
		})
	}

	osTemplate := b.os.OSTemplate(doc.Hostname)
	version, ok := b.osTemplates[osTemplate]
	if !ok {
		b.warn(report, Issue{
			Kind:    UnknownOSTemplate,
			Host:    doc.Hostname,
			Source:  doc.Source,
			Message: fmt.Sprintf("Unknown OS template name %q for node %s", osTemplate, doc.Hostname),
		})
	}
	record.OSVersion = version

	extracted := b.extractor.Extract(doc.Document, version)
	if !extracted.Supported {
		b.warn(report, Issue{
			Kind:    UnsupportedOSFamily,
			Host:    doc.Hostname,
			Source:  doc.Source,
			Message: fmt.Sprintf("Unknown OS version %q for node %s", version, doc.Hostname),
		})
	}

	record.DeclaredHostname = extracted.DeclaredHostname
	record.NetworkHostname = extracted.NetworkHostname
	record.BMCAddress = extracted.BMCAddress
	record.Interfaces = extracted.Interfaces

	if d := record.DeclaredHostname; d != "" && d != record.Hostname && d != record.ShortName() {
		b.warn(report, Issue{
			Kind:    HostnameMismatch,
			Host:    doc.Hostname,
			Source:  doc.Source,
			Message: fmt.Sprintf("Hostname mismatch: %s != %s", d, record.Hostname),
		})
	}

	record.Location = b.location.Location(doc.Hostname)

	primary := SelectPrimary(record.Interfaces)
	record.MACAddress = primary.MACAddress
	record.IPv4Address = primary.IPv4Address
	record.IPv6Address = primary.IPv6Address

	return record
}

func (b *Builder) warn(report *Report, issue Issue) {
	event := log.Warn()
	if issue.Kind == ParseFailure {
		event = log.Error()
	}
	event.
		Str("issue", issue.Kind.String()).
		Str("host", issue.Host).
		Str("source", issue.Source).
		Msg(issue.Message)
	report.add(issue)
}

// chassisTag strips the extension from a chassis template name.
func chassisTag(template string) string {
	return strings.TrimSuffix(template, filepath.Ext(template))
}
