package memory

import (
	"sync"

	"github.com/openchami/fleet-parity/internal/storage"
	"github.com/openchami/fleet-parity/pkg/nodes"
)

type InMemoryStorage struct {
	mu    sync.RWMutex
	order []string
	hosts map[string]nodes.HostRecord
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		hosts: make(map[string]nodes.HostRecord),
	}
}

func (s *InMemoryStorage) SaveHost(host nodes.HostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[host.Hostname]; !ok {
		s.order = append(s.order, host.Hostname)
	}
	s.hosts[host.Hostname] = host
	return nil
}

func (s *InMemoryStorage) GetHost(hostname string) (nodes.HostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	host, ok := s.hosts[hostname]
	if !ok {
		return nodes.HostRecord{}, storage.ErrNotFound
	}
	return host, nil
}

func (s *InMemoryStorage) DeleteHost(hostname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[hostname]; !ok {
		return storage.ErrNotFound
	}
	delete(s.hosts, hostname)
	for i, h := range s.order {
		if h == hostname {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStorage) SearchHosts(opts ...storage.HostSearchOption) ([]nodes.HostRecord, error) {
	options := storage.NewHostSearchOptions(opts...)

	s.mu.RLock()
	defer s.mu.RUnlock()
	found := []nodes.HostRecord{}
	for _, hostname := range s.order {
		host := s.hosts[hostname]
		if options.Matches(host) {
			found = append(found, host)
		}
	}
	return found, nil
}
