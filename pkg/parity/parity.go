package parity

import (
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/rs/zerolog/log"
)

// RuleID names the invariant a violation breaks.
type RuleID string

const (
	DuplicateBMCAddress  RuleID = "duplicate_bmc_address"
	DuplicateIPv4Address RuleID = "duplicate_ipv4_address"
	DuplicateIPv6Address RuleID = "duplicate_ipv6_address"
	MissingHWAddr        RuleID = "primary_nic_missing_hwaddr"
	MissingIPv6          RuleID = "missing_ipv6"
	VirtualMachineBMC    RuleID = "virtual_machine_bmc"
	NonEUI64IPv6         RuleID = "ipv6_not_eui64"
)

// Violation is one broken invariant.
type Violation struct {
	Rule      RuleID `json:"rule"`
	Host      string `json:"host"`
	Interface string `json:"interface,omitempty"`
	Message   string `json:"message"`
}

// Result is the outcome of one check run. Skipped lists hosts that had no
// data; they are informational and not violations.
type Result struct {
	Violations []Violation `json:"violations"`
	Skipped    []string    `json:"skipped"`
}

// Messages returns the violation descriptions in evaluation order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Message)
	}
	return out
}

// Rule is evaluated once per host and once per interface of that host.
type Rule interface {
	Host(run *Run, hostname string, record *nodes.HostRecord)
	Interface(run *Run, hostname string, record *nodes.HostRecord, iface nodes.NetworkInterface)
}

// Run is the state of a single check invocation.
type Run struct {
	seen   map[RuleID]map[string]struct{}
	result Result
}

func newRun() *Run {
	return &Run{
		seen: make(map[RuleID]map[string]struct{}),
		result: Result{
			Violations: []Violation{},
			Skipped:    []string{},
		},
	}
}

// Seen records value under scope and reports whether it was already there.
func (r *Run) Seen(scope RuleID, value string) bool {
	set, ok := r.seen[scope]
	if !ok {
		set = make(map[string]struct{})
		r.seen[scope] = set
	}
	if _, dup := set[value]; dup {
		return true
	}
	set[value] = struct{}{}
	return false
}

func (r *Run) Report(v Violation) {
	r.result.Violations = append(r.result.Violations, v)
}

// Checker evaluates its rules over a fleet.
type Checker struct {
	rules []Rule
}

type Option func(*Checker)

// WithExtendedRules adds the virtual-machine BMC and EUI-64 rules after the
// base rules.
func WithExtendedRules() Option {
	return func(c *Checker) {
		c.rules = append(c.rules, virtualMachineBMC{}, eui64Rule{})
	}
}

// WithRules appends custom rules.
func WithRules(rules ...Rule) Option {
	return func(c *Checker) {
		c.rules = append(c.rules, rules...)
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{rules: BaseRules()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseRules are the checks every run performs, in evaluation order.
func BaseRules() []Rule {
	return []Rule{
		uniqueBMC{},
		uniqueAddress{rule: DuplicateIPv4Address, label: "IPv4", address: func(i nodes.NetworkInterface) string { return i.IPv4Address }},
		uniqueAddress{rule: DuplicateIPv6Address, label: "IPv6", address: func(i nodes.NetworkInterface) string { return i.IPv6Address }},
		primaryNICHWAddr{},
		missingIPv6{},
	}
}

// Check runs the base rules and returns the violation descriptions.
func Check(fleet *nodes.Fleet) []string {
	return NewChecker().Run(fleet).Messages()
}

// Run evaluates every rule. Hosts are visited in fleet order and
// interfaces in record order, so the first occurrence of an address is
// never reported and every repeat is.
func (c *Checker) Run(fleet *nodes.Fleet) Result {
	run := newRun()

	for _, hostname := range fleet.Hostnames() {
		record, _ := fleet.Get(hostname)
		if record.Empty() {
			log.Info().Str("host", hostname).Msgf("Node %s has no data.", hostname)
			run.result.Skipped = append(run.result.Skipped, hostname)
			continue
		}

		for _, rule := range c.rules {
			rule.Host(run, hostname, record)
		}
		for _, iface := range record.Interfaces {
			for _, rule := range c.rules {
				rule.Interface(run, hostname, record, iface)
			}
		}
	}

	log.Debug().
		Int("hosts", fleet.Len()).
		Int("violations", len(run.result.Violations)).
		Int("skipped", len(run.result.Skipped)).
		Msg("Parity checks complete")
	return run.result
}

// configFile is the interface's config file name, as used in messages.
func configFile(iface nodes.NetworkInterface) string {
	if iface.ConfigFile != "" {
		return iface.ConfigFile
	}
	return "ifcfg-" + iface.InterfaceName
}
