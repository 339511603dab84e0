// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/acuity/internal/triage"
)

// Store holds decisions in memory. Suitable for dev/testing.
type Store struct {
	mu        sync.RWMutex
	decisions map[string]*triage.Decision // decision ID -> decision
	order     []string                    // insertion order, oldest first
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		decisions: make(map[string]*triage.Decision),
	}
}

// Get retrieves a decision by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Decision, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

// Put stores a copy of the decision.
func (s *Store) Put(_ context.Context, d *triage.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[d.ID]; !exists {
		s.order = append(s.order, d.ID)
	}
	cp := *d
	s.decisions[d.ID] = &cp
	return nil
}

// List returns up to limit decisions, most recent first.
func (s *Store) List(_ context.Context, limit int) ([]*triage.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]*triage.Decision, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.decisions[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}
