package memory

import (
	"context"
	"sync"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// PatternStore is a thread-safe in-memory providers.PatternStore.
type PatternStore struct {
	mu       sync.RWMutex
	patterns map[care.ID]*care.ServicePattern
}

// NewPatternStore constructs an empty PatternStore.
func NewPatternStore() *PatternStore {
	return &PatternStore{patterns: make(map[care.ID]*care.ServicePattern)}
}

// Put inserts or replaces a pattern, for seeding a store without exposing a
// CreatePattern method on the narrower providers.PatternStore interface.
func (s *PatternStore) Put(p *care.ServicePattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.patterns[p.ID] = &cp
}

func (s *PatternStore) GetPattern(_ context.Context, id care.ID) (*care.ServicePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[id]
	if !ok {
		return nil, care.NewNotFoundError("servicePattern.id", "service pattern not found")
	}
	cp := *p
	return &cp, nil
}

func (s *PatternStore) ActivePatterns(_ context.Context) ([]*care.ServicePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*care.ServicePattern
	for _, p := range s.patterns {
		if p.CanGenerateVisits() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
