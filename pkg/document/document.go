package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is a read-only view of one value in a parsed configuration document.
// Mapping order is the order the keys appear in the source. The zero Node is
// absent, and every accessor on an absent Node reports absence instead of
// failing.
type Node struct {
	n *yaml.Node
}

// Entry is one key/value pair of a mapping, in document order.
type Entry struct {
	Key   string
	Value Node
}

// Parse decodes a single YAML document. An empty input is not an error: it
// yields an absent Node.
func Parse(data []byte) (Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Node{}, nil
		}
		return Node{}, fmt.Errorf("parse document: %w", err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return Node{}, fmt.Errorf("parse document: %w", err)
		}
		return Node{}, fmt.Errorf("parse document: expected a single document in the stream")
	}

	return Wrap(&root), nil
}

// Wrap returns a Node for an already decoded yaml.Node.
func Wrap(n *yaml.Node) Node {
	return Node{n: resolve(n)}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.DocumentNode:
			return nil
		case n.Kind == yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// Present reports whether the node exists and is not null.
func (d Node) Present() bool {
	return d.n != nil && !d.isNull()
}

func (d Node) isNull() bool {
	if d.n.Kind != yaml.ScalarNode {
		return false
	}
	if d.n.Tag == "!!null" {
		return true
	}
	if d.n.Style != 0 || (d.n.Tag != "" && d.n.Tag != "!") {
		return false
	}
	switch d.n.Value {
	case "", "~", "null", "Null", "NULL":
		return true
	}
	return false
}

// IsMapping reports whether the node is a mapping.
func (d Node) IsMapping() bool {
	return d.n != nil && d.n.Kind == yaml.MappingNode
}

// Entries returns the pairs of a mapping in document order. A repeated key
// keeps the position of its first occurrence and the value of its last.
// Non-mapping nodes have no entries.
func (d Node) Entries() []Entry {
	if !d.IsMapping() {
		return nil
	}

	entries := make([]Entry, 0, len(d.n.Content)/2)
	index := make(map[string]int, len(d.n.Content)/2)
	for i := 0; i+1 < len(d.n.Content); i += 2 {
		key := Wrap(d.n.Content[i])
		if key.n == nil || key.n.Kind != yaml.ScalarNode {
			continue
		}
		value := Wrap(d.n.Content[i+1])
		if pos, ok := index[key.n.Value]; ok {
			entries[pos].Value = value
			continue
		}
		index[key.n.Value] = len(entries)
		entries = append(entries, Entry{Key: key.n.Value, Value: value})
	}
	return entries
}

// Get returns the value stored under key in a mapping.
func (d Node) Get(key string) (Node, bool) {
	var found Node
	ok := false
	for _, e := range d.Entries() {
		if e.Key == key {
			found, ok = e.Value, true
		}
	}
	return found, ok
}

// Lookup follows a path of mapping keys. Absence at any level yields false.
func (d Node) Lookup(path ...string) (Node, bool) {
	cur := d
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, cur.n != nil
}

// String returns the text of a non-null scalar.
func (d Node) String() (string, bool) {
	if !d.Present() || d.n.Kind != yaml.ScalarNode {
		return "", false
	}
	return d.n.Value, true
}

// LookupString is Lookup followed by String.
func (d Node) LookupString(path ...string) (string, bool) {
	n, ok := d.Lookup(path...)
	if !ok {
		return "", false
	}
	return n.String()
}

// Truthy reports whether the value counts as set. Plain YAML 1.1 booleans
// (true, yes, on and their negatives) are honoured, numbers are true when
// non-zero, strings when non-empty and collections when non-empty.
func (d Node) Truthy() bool {
	if !d.Present() {
		return false
	}

	switch d.n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(d.n.Content) > 0
	case yaml.ScalarNode:
	default:
		return false
	}

	v := d.n.Value
	quoted := d.n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0
	if quoted || (d.n.Style&yaml.TaggedStyle != 0 && d.n.Tag == "!!str") {
		return v != ""
	}

	switch v {
	case "true", "True", "TRUE", "yes", "Yes", "YES", "on", "On", "ON":
		return true
	case "false", "False", "FALSE", "no", "No", "NO", "off", "Off", "OFF":
		return false
	}
	if i, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 0, 64); err == nil {
		return i != 0
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f != 0
	}
	return v != ""
}
