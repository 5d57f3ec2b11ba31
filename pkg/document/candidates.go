package document

import "strings"

// Candidate is one line a configuration file could contain, together with
// the flag saying whether it is the active choice.
type Candidate struct {
	Value  string
	Active bool
}

// Candidates flattens a file content block into its candidate lines. The
// block maps arbitrary keys to mappings of {line: flag}; entries whose value
// is not a mapping are ignored. Document order is preserved.
func (d Node) Candidates() []Candidate {
	var out []Candidate
	for _, group := range d.Entries() {
		if !group.Value.IsMapping() {
			continue
		}
		for _, line := range group.Value.Entries() {
			out = append(out, Candidate{Value: line.Key, Active: line.Value.Truthy()})
		}
	}
	return out
}

// Active returns the last active candidate.
func Active(candidates []Candidate) (string, bool) {
	var value string
	found := false
	for _, c := range candidates {
		if c.Active {
			value, found = c.Value, true
		}
	}
	return value, found
}

// ActiveSetting returns the value of the last active KEY=value line whose
// text starts with prefix (for example "HOSTNAME="). The value is everything
// after the first '='.
func ActiveSetting(candidates []Candidate, prefix string) (string, bool) {
	var value string
	found := false
	for _, c := range candidates {
		if !c.Active || !strings.HasPrefix(c.Value, prefix) {
			continue
		}
		_, v, _ := strings.Cut(c.Value, "=")
		value, found = v, true
	}
	return value, found
}
