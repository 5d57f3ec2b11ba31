package api

import (
	"context"
	"sync"

	"github.com/openchami/fleet-parity/pkg/report"
)

// Runner rebuilds the fleet from its source, stores it and checks it.
type Runner interface {
	Run(ctx context.Context) (report.FleetExport, error)
}

type RunnerFunc func(ctx context.Context) (report.FleetExport, error)

func (f RunnerFunc) Run(ctx context.Context) (report.FleetExport, error) {
	return f(ctx)
}

// State holds the export of the most recent run. Refreshes are serialized.
type State struct {
	mu      sync.RWMutex
	refresh sync.Mutex
	export  report.FleetExport
}

func NewState(export report.FleetExport) *State {
	return &State{export: export}
}

func (s *State) Get() report.FleetExport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.export
}

func (s *State) Set(export report.FleetExport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.export = export
}

// Refresh runs r and publishes its export. A failed run leaves the previous
// export in place.
func (s *State) Refresh(ctx context.Context, r Runner) (report.FleetExport, error) {
	s.refresh.Lock()
	defer s.refresh.Unlock()
	export, err := r.Run(ctx)
	if err != nil {
		return report.FleetExport{}, err
	}
	s.Set(export)
	return export, nil
}
