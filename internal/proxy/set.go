package proxy

import (
	"strings"
	"sync"
)

// Set is an append-only, thread-safe collection of known proxy endpoints in
// host:port form. Entries are never evicted; a stale false positive is rarer
// and cheaper than a missed proxy. The host part is indexed separately so a
// client IP can be matched without knowing the proxy's listening port.
type Set struct {
	mu      sync.RWMutex
	entries map[string]struct{}
	hosts   map[string]struct{}
}

func NewSet() *Set {
	return &Set{
		entries: make(map[string]struct{}),
		hosts:   make(map[string]struct{}),
	}
}

func (s *Set) Add(entry string) {
	host, _, ok := strings.Cut(entry, ":")
	s.mu.Lock()
	s.entries[entry] = struct{}{}
	if ok && host != "" {
		s.hosts[host] = struct{}{}
	}
	s.mu.Unlock()
}

// ContainsHost reports whether any known proxy endpoint has the given host.
func (s *Set) ContainsHost(host string) bool {
	s.mu.RLock()
	_, ok := s.hosts[host]
	s.mu.RUnlock()
	return ok
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
