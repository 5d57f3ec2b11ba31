package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/openchami/fleet-parity/pkg/fleet"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/openchami/fleet-parity/pkg/parity"
)

// FleetExport is the JSON document written by `check --output json` and
// served by the API. Slices are never null.
type FleetExport struct {
	RunID      string             `json:"run_id" jsonschema:"minLength=1"`
	Hosts      []nodes.HostRecord `json:"hosts"`
	Issues     []fleet.Issue      `json:"issues"`
	Violations []parity.Violation `json:"violations"`
	Skipped    []string           `json:"skipped"`
}

func New(runID string, hosts *nodes.Fleet, issues fleet.Report, result parity.Result) FleetExport {
	export := FleetExport{
		RunID:      runID,
		Hosts:      hosts.Records(),
		Issues:     issues.Issues,
		Violations: result.Violations,
		Skipped:    result.Skipped,
	}
	for i := range export.Hosts {
		if export.Hosts[i].Interfaces == nil {
			export.Hosts[i].Interfaces = []nodes.NetworkInterface{}
		}
	}
	if export.Issues == nil {
		export.Issues = []fleet.Issue{}
	}
	if export.Violations == nil {
		export.Violations = []parity.Violation{}
	}
	if export.Skipped == nil {
		export.Skipped = []string{}
	}
	return export
}

// Failed reports whether any parity check failed.
func (e FleetExport) Failed() bool {
	return len(e.Violations) > 0
}

// WriteText prints the violation messages in evaluation order, or a single
// success line.
func (e FleetExport) WriteText(w io.Writer) error {
	if !e.Failed() {
		_, err := fmt.Fprintln(w, "All parity checks passed.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Parity Check Failures:"); err != nil {
		return err
	}
	for _, v := range e.Violations {
		if _, err := fmt.Fprintln(w, v.Message); err != nil {
			return err
		}
	}
	return nil
}

func (e FleetExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
