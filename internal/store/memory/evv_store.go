package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// EVVStore is a thread-safe in-memory providers.EVVStore.
type EVVStore struct {
	mu        sync.RWMutex
	records   map[care.ID]*care.EVVRecord
	byVisitID map[care.ID]care.ID
}

// NewEVVStore constructs an empty EVVStore.
func NewEVVStore() *EVVStore {
	return &EVVStore{
		records:   make(map[care.ID]*care.EVVRecord),
		byVisitID: make(map[care.ID]care.ID),
	}
}

func (s *EVVStore) CreateEVVRecord(_ context.Context, r *care.EVVRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.records[r.ID] = &cp
	s.byVisitID[r.VisitID] = r.ID
	return nil
}

func (s *EVVStore) GetEVVRecord(_ context.Context, id care.ID) (*care.EVVRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, care.NewNotFoundError("evvRecord.id", "evv record not found")
	}
	cp := *r
	return &cp, nil
}

func (s *EVVStore) GetEVVRecordByVisit(_ context.Context, visitID care.ID) (*care.EVVRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byVisitID[visitID]
	if !ok {
		return nil, care.NewNotFoundError("evvRecord.visitId", "evv record not found for visit")
	}
	cp := *s.records[id]
	return &cp, nil
}

func (s *EVVStore) UpdateEVVRecord(_ context.Context, r *care.EVVRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return care.NewNotFoundError("evvRecord.id", "evv record not found")
	}
	cp := *r
	s.records[r.ID] = &cp
	s.byVisitID[r.VisitID] = r.ID
	return nil
}

func (s *EVVStore) SearchEVVRecords(_ context.Context, f providers.EVVFilter) ([]*care.EVVRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*care.EVVRecord
	for _, r := range s.records {
		if f.ClientID != nil && r.ClientID != *f.ClientID {
			continue
		}
		if f.CaregiverID != nil && r.CaregiverID != *f.CaregiverID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.HasFlags && len(r.ComplianceFlags) == 0 {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
