package storage

import (
	"errors"
	"fmt"

	"github.com/openchami/fleet-parity/pkg/nodes"
)

var ErrNotFound = errors.New("host not found")

// HostStorage holds the host records of the current fleet. Searches return
// records in the order they were first saved.
type HostStorage interface {
	SaveHost(host nodes.HostRecord) error
	GetHost(hostname string) (nodes.HostRecord, error)
	DeleteHost(hostname string) error
	SearchHosts(opts ...HostSearchOption) ([]nodes.HostRecord, error)
}

// SaveFleet stores every record of a fleet in fleet order.
func SaveFleet(s HostStorage, fleet *nodes.Fleet) error {
	for _, record := range fleet.Records() {
		if err := s.SaveHost(record); err != nil {
			return fmt.Errorf("save host %s: %w", record.Hostname, err)
		}
	}
	return nil
}

// ReplaceFleet makes the storage hold exactly the records of fleet: hosts no
// longer in the fleet are deleted, the rest are saved in fleet order.
func ReplaceFleet(s HostStorage, fleet *nodes.Fleet) error {
	stored, err := s.SearchHosts()
	if err != nil {
		return fmt.Errorf("list hosts: %w", err)
	}
	for _, host := range stored {
		if record, ok := fleet.Get(host.Hostname); ok && record != nil {
			continue
		}
		if err := s.DeleteHost(host.Hostname); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete host %s: %w", host.Hostname, err)
		}
	}
	return SaveFleet(s, fleet)
}

type HostSearchOptions struct {
	Location    string
	Chassis     string
	OSVersion   string
	BMCAddress  string
	MAC         string
	Virtual     *bool
	MissingIPv4 bool
	MissingIPv6 bool
}

type HostSearchOption func(*HostSearchOptions)

func NewHostSearchOptions(opts ...HostSearchOption) *HostSearchOptions {
	options := &HostSearchOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func WithLocation(location string) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.Location = location
	}
}

func WithChassis(chassis string) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.Chassis = chassis
	}
}

func WithOSVersion(version string) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.OSVersion = version
	}
}

func WithBMCAddress(addr string) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.BMCAddress = addr
	}
}

// WithMAC matches hosts with the MAC on any interface.
func WithMAC(mac string) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.MAC = mac
	}
}

func WithVirtual(virtual bool) HostSearchOption {
	return func(o *HostSearchOptions) {
		o.Virtual = &virtual
	}
}

// WithMissingIPv4 matches hosts without a primary IPv4 address.
func WithMissingIPv4() HostSearchOption {
	return func(o *HostSearchOptions) {
		o.MissingIPv4 = true
	}
}

// WithMissingIPv6 matches hosts without a primary IPv6 address.
func WithMissingIPv6() HostSearchOption {
	return func(o *HostSearchOptions) {
		o.MissingIPv6 = true
	}
}

// Matches applies the options to a record in memory.
func (o *HostSearchOptions) Matches(h nodes.HostRecord) bool {
	if o.Location != "" && h.Location != o.Location {
		return false
	}
	if o.Chassis != "" && h.Chassis != o.Chassis {
		return false
	}
	if o.OSVersion != "" && string(h.OSVersion) != o.OSVersion {
		return false
	}
	if o.BMCAddress != "" && h.BMCAddress != o.BMCAddress {
		return false
	}
	if o.Virtual != nil && h.IsVirtualMachine != *o.Virtual {
		return false
	}
	if o.MissingIPv4 && h.IPv4Address != "" {
		return false
	}
	if o.MissingIPv6 && h.IPv6Address != "" {
		return false
	}
	if o.MAC != "" {
		for _, iface := range h.Interfaces {
			if iface.MACAddress == o.MAC {
				return true
			}
		}
		return false
	}
	return true
}
