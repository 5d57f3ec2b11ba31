package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyIsAbsent(t *testing.T) {
	doc, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.False(t, doc.Present())

	_, ok := doc.LookupString("bmc", "lan", "ip_address")
	assert.False(t, ok)
}

func TestParseRejectsMalformedAndMultiDocument(t *testing.T) {
	_, err := Parse([]byte("file: [unterminated"))
	assert.Error(t, err)

	_, err = Parse([]byte("a: 1\n---\nb: 2\n"))
	assert.Error(t, err)
}

func TestLookupStringPaths(t *testing.T) {
	doc, err := Parse([]byte(`
bmc:
  lan:
    ip_address: 10.1.1.5
other:
  lan: plain
empty:
  value: ~
`))
	require.NoError(t, err)

	v, ok := doc.LookupString("bmc", "lan", "ip_address")
	require.True(t, ok)
	assert.Equal(t, "10.1.1.5", v)

	_, ok = doc.LookupString("other", "lan", "ip_address")
	assert.False(t, ok, "scalar in the middle of the path")

	_, ok = doc.LookupString("missing", "lan")
	assert.False(t, ok)

	_, ok = doc.LookupString("empty", "value")
	assert.False(t, ok, "null is absent")
}

func TestEntriesKeepDocumentOrder(t *testing.T) {
	doc, err := Parse([]byte(`
zeta: 1
alpha: 2
mid: 3
alpha: 4
`))
	require.NoError(t, err)

	entries := doc.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "zeta", entries[0].Key)
	assert.Equal(t, "alpha", entries[1].Key)
	assert.Equal(t, "mid", entries[2].Key)

	v, _ := entries[1].Value.String()
	assert.Equal(t, "4", v, "repeated key keeps the last value")
}

func TestAliasesResolve(t *testing.T) {
	doc, err := Parse([]byte(`
base: &lan
  ip_address: 10.0.0.9
bmc:
  lan: *lan
`))
	require.NoError(t, err)

	v, ok := doc.LookupString("bmc", "lan", "ip_address")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9", v)
}

func TestTruthy(t *testing.T) {
	doc, err := Parse([]byte(`
t1: true
t2: yes
t3: On
t4: 1
t5: "false"
t6: [a]
f1: false
f2: no
f3: off
f4: 0
f5: ""
f6: ~
f7: []
`))
	require.NoError(t, err)

	for _, e := range doc.Entries() {
		want := e.Key[0] == 't'
		assert.Equal(t, want, e.Value.Truthy(), e.Key)
	}
}

func TestCandidatesLastActiveWins(t *testing.T) {
	doc, err := Parse([]byte(`
first:
  h1: true
second:
  h2: true
third:
  h3: false
note: not a mapping
`))
	require.NoError(t, err)

	candidates := doc.Candidates()
	require.Len(t, candidates, 3)

	v, ok := Active(candidates)
	require.True(t, ok)
	assert.Equal(t, "h2", v)
}

func TestActiveNoneFlagged(t *testing.T) {
	_, ok := Active([]Candidate{{Value: "a"}, {Value: "b"}})
	assert.False(t, ok)
}

func TestActiveSetting(t *testing.T) {
	candidates := []Candidate{
		{Value: "HOSTNAME=old.example.org", Active: false},
		{Value: "NETWORKING=yes", Active: true},
		{Value: "HOSTNAME=node1.example.org", Active: true},
		{Value: "IPV6ADDR=2001:db8::1/64=x", Active: true},
	}

	v, ok := ActiveSetting(candidates, "HOSTNAME=")
	require.True(t, ok)
	assert.Equal(t, "node1.example.org", v)

	v, ok = ActiveSetting(candidates, "IPV6ADDR=")
	require.True(t, ok)
	assert.Equal(t, "2001:db8::1/64=x", v, "value is everything after the first '='")

	_, ok = ActiveSetting(candidates, "HWADDR=")
	assert.False(t, ok)
}
