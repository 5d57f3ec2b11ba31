package nodes

// Fleet maps canonical hostnames to host records and remembers the order in
// which hosts were added.
type Fleet struct {
	order []string
	hosts map[string]*HostRecord
}

func NewFleet() *Fleet {
	return &Fleet{
		hosts: make(map[string]*HostRecord),
	}
}

// Add stores a record under hostname. Replacing an existing hostname keeps
// its original position. A nil record marks a host without data.
func (f *Fleet) Add(hostname string, record *HostRecord) {
	if _, exists := f.hosts[hostname]; !exists {
		f.order = append(f.order, hostname)
	}
	f.hosts[hostname] = record
}

func (f *Fleet) Get(hostname string) (*HostRecord, bool) {
	record, ok := f.hosts[hostname]
	return record, ok
}

func (f *Fleet) Len() int {
	return len(f.order)
}

// Hostnames returns the hostnames in insertion order.
func (f *Fleet) Hostnames() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Records returns the non-nil records in insertion order.
func (f *Fleet) Records() []HostRecord {
	out := make([]HostRecord, 0, len(f.order))
	for _, hostname := range f.order {
		if record := f.hosts[hostname]; record != nil {
			out = append(out, *record)
		}
	}
	return out
}
