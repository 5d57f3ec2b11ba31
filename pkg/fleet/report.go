package fleet

import "github.com/invopop/jsonschema"

// IssueKind classifies a non-fatal problem found while building the fleet.
type IssueKind string

const (
	ParseFailure        IssueKind = "parse_failure"
	UnsupportedOSFamily IssueKind = "unsupported_os_family"
	UnknownOSTemplate   IssueKind = "unknown_os_template"
	UnknownChassis      IssueKind = "unknown_chassis"
	HostnameMismatch    IssueKind = "hostname_mismatch"
)

func (k IssueKind) String() string {
	return string(k)
}

// JSONSchema for IssueKind to enforce enum and description.
func (IssueKind) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        []interface{}{"parse_failure", "unsupported_os_family", "unknown_os_template", "unknown_chassis", "hostname_mismatch"},
		Title:       "IssueKind",
		Description: "parse_failure means the host was skipped. Every other kind is a warning on a host that was still recorded.",
	}
}

// Issue is one warning or skipped host.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Host    string    `json:"host"`
	Source  string    `json:"source,omitempty"`
	Message string    `json:"message"`
}

// Report collects the issues of one Build in the order they were found.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Skipped returns the hosts that could not be parsed.
func (r Report) Skipped() []string {
	var hosts []string
	for _, issue := range r.Issues {
		if issue.Kind == ParseFailure {
			hosts = append(hosts, issue.Host)
		}
	}
	return hosts
}

// Count returns the number of issues of the given kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}
