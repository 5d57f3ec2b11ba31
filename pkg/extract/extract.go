package extract

import (
	"github.com/openchami/fleet-parity/pkg/document"
	"github.com/openchami/fleet-parity/pkg/nodes"
)

// Result is what could be read from one host document. Absent values are
// empty strings. Supported is false when no strategy handles the OS family.
type Result struct {
	DeclaredHostname string
	NetworkHostname  string
	BMCAddress       string
	Interfaces       []nodes.NetworkInterface
	Supported        bool
}

// Strategy reads a host document laid out for one OS generation.
type Strategy interface {
	Extract(doc document.Node) Result
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(doc document.Node) Result

func (f StrategyFunc) Extract(doc document.Node) Result {
	return f(doc)
}

// Extractor selects an extraction strategy by OS family.
type Extractor struct {
	strategies map[nodes.OSVersion]Strategy
}

// New returns an Extractor with the built-in strategies: CentOS 7 documents
// carry nothing usable, CentOS 8 and 9 use the sysconfig layout.
func New() *Extractor {
	e := &Extractor{
		strategies: make(map[nodes.OSVersion]Strategy),
	}
	e.Register(nodes.CentOS7, StrategyFunc(noop))
	e.Register(nodes.CentOS8, StrategyFunc(sysconfig))
	e.Register(nodes.CentOS9, StrategyFunc(sysconfig))
	return e
}

func (e *Extractor) Register(family nodes.OSVersion, strategy Strategy) {
	e.strategies[family] = strategy
}

// Supports reports whether a strategy is registered for family.
func (e *Extractor) Supports(family nodes.OSVersion) bool {
	_, ok := e.strategies[family]
	return ok
}

// Extract never fails. An unsupported family yields an empty Result with
// Supported unset so the caller can report it.
func (e *Extractor) Extract(doc document.Node, family nodes.OSVersion) Result {
	strategy, ok := e.strategies[family]
	if !ok {
		return Result{Interfaces: []nodes.NetworkInterface{}}
	}
	result := strategy.Extract(doc)
	if result.Interfaces == nil {
		result.Interfaces = []nodes.NetworkInterface{}
	}
	result.Supported = true
	return result
}

func noop(document.Node) Result {
	return Result{}
}
