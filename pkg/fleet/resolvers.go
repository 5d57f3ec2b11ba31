package fleet

// HostTemplates is what the external collaborators resolved for one host.
type HostTemplates struct {
	Chassis  string
	Virtual  bool
	OS       string
	Location string
}

// Templates resolves chassis, OS template and location from memory. It
// implements ChassisResolver, OSResolver and LocationResolver.
type Templates map[string]HostTemplates

func (t Templates) Chassis(hostname string) (string, bool) {
	h := t[hostname]
	return h.Chassis, h.Virtual
}

func (t Templates) OSTemplate(hostname string) string {
	return t[hostname].OS
}

func (t Templates) Location(hostname string) string {
	return t[hostname].Location
}
