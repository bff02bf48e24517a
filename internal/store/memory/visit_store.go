// Package memory provides thread-safe in-memory implementations of the
// internal/providers store interfaces. Suitable for local development, the
// serve command's default backend, and integration-style tests that want a
// real (if non-persistent) store instead of a mock. For production use with
// multiple replicas, implement the same interfaces against a real database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// VisitStore is a thread-safe in-memory providers.VisitStore.
type VisitStore struct {
	mu       sync.RWMutex
	visits   map[care.ID]*care.Visit
	sequence map[string]int // "{orgID}:{year}" -> last issued sequence
}

// NewVisitStore constructs an empty VisitStore.
func NewVisitStore() *VisitStore {
	return &VisitStore{
		visits:   make(map[care.ID]*care.Visit),
		sequence: make(map[string]int),
	}
}

func (s *VisitStore) CreateVisit(_ context.Context, v *care.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.visits[v.ID] = &cp
	return nil
}

func (s *VisitStore) GetVisit(_ context.Context, id care.ID) (*care.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[id]
	if !ok {
		return nil, care.NewNotFoundError("visit.id", "visit not found")
	}
	cp := *v
	return &cp, nil
}

func (s *VisitStore) UpdateVisit(_ context.Context, v *care.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visits[v.ID]; !ok {
		return care.NewNotFoundError("visit.id", "visit not found")
	}
	cp := *v
	s.visits[v.ID] = &cp
	return nil
}

func (s *VisitStore) SearchVisits(_ context.Context, f providers.VisitFilter) ([]*care.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*care.Visit
	for _, v := range s.visits {
		if f.ClientID != nil && v.ClientID != *f.ClientID {
			continue
		}
		if f.CaregiverID != nil && (v.Assignment == nil || v.Assignment.CaregiverID != *f.CaregiverID) {
			continue
		}
		if f.Status != nil && v.Status != *f.Status {
			continue
		}
		if f.ServiceFrom != nil && v.ServiceDate.Before(*f.ServiceFrom) {
			continue
		}
		if f.ServiceTo != nil && f.ServiceTo.Before(v.ServiceDate) {
			continue
		}
		if f.Unassigned && v.Assignment != nil {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *VisitStore) VisitsForCaregiverOnDate(_ context.Context, caregiverID care.ID, date care.LocalDate) ([]*care.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*care.Visit
	for _, v := range s.visits {
		if v.Assignment == nil || v.Assignment.CaregiverID != caregiverID {
			continue
		}
		if v.ServiceDate != date {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (s *VisitStore) NextVisitSequence(_ context.Context, organizationID care.ID, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := organizationID.String() + ":" + strconv.Itoa(year)
	s.sequence[key]++
	return s.sequence[key], nil
}

// clockInEligible are the visit statuses from which a clock-in may proceed.
var clockInEligible = map[care.VisitStatus]bool{
	care.VisitAssigned:  true,
	care.VisitConfirmed: true,
	care.VisitEnRoute:   true,
}

// GetVisitForEVV returns the subset of visit state the EVV engine needs,
// implementing providers.VisitProvider over the same visit records the
// Visit Lifecycle Manager owns.
func (s *VisitStore) GetVisitForEVV(_ context.Context, visitID care.ID) (*providers.EVVVisitView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[visitID]
	if !ok {
		return nil, care.NewNotFoundError("visit.id", "visit not found")
	}
	view := &providers.EVVVisitView{
		ID:             v.ID,
		ClientID:       v.ClientID,
		Status:         v.Status,
		ServiceAddress: v.ServiceAddress,
		ServiceDate:    v.ServiceDate,
	}
	if v.Assignment != nil {
		view.AssignedCaregiverID = v.Assignment.CaregiverID
	}
	return view, nil
}

// CanClockIn reports whether caregiverID may clock in to visitID: the visit
// must be in an eligible status, caregiverID must be its assignee, and its
// scheduled date must not be in the future.
func (s *VisitStore) CanClockIn(_ context.Context, visitID, caregiverID care.ID, today care.LocalDate) (bool, string, error) {
	s.mu.RLock()
	v, ok := s.visits[visitID]
	s.mu.RUnlock()
	if !ok {
		return false, "", care.NewNotFoundError("visit.id", "visit not found")
	}
	if !clockInEligible[v.Status] {
		return false, fmt.Sprintf("visit is in status %s, not eligible for clock-in", v.Status), nil
	}
	if v.Assignment == nil || v.Assignment.CaregiverID != caregiverID {
		return false, "caregiver is not the assigned caregiver for this visit", nil
	}
	if v.ServiceDate.After(today) {
		return false, "visit is scheduled for a future date", nil
	}
	return true, "", nil
}

// CanClockOut reports whether caregiverID may clock out of visitID: the
// visit must be IN_PROGRESS and caregiverID must be its assignee.
func (s *VisitStore) CanClockOut(_ context.Context, visitID, caregiverID care.ID) (bool, string, error) {
	s.mu.RLock()
	v, ok := s.visits[visitID]
	s.mu.RUnlock()
	if !ok {
		return false, "", care.NewNotFoundError("visit.id", "visit not found")
	}
	if v.Status != care.VisitInProgress {
		return false, fmt.Sprintf("visit is in status %s, not eligible for clock-out", v.Status), nil
	}
	if v.Assignment == nil || v.Assignment.CaregiverID != caregiverID {
		return false, "caregiver is not the assigned caregiver for this visit", nil
	}
	return true, "", nil
}

// UpdateVisitStatus sets visitID's status as a side effect of an EVV clock
// event and links the originating EVV record. It sets only those two
// fields: it does not check the transition, append status history, or set
// ActualStartTime/ActualEndTime.
func (s *VisitStore) UpdateVisitStatus(_ context.Context, visitID care.ID, status care.VisitStatus, evvRecordID care.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[visitID]
	if !ok {
		return care.NewNotFoundError("visit.id", "visit not found")
	}
	cp := *v
	cp.Status = status
	id := evvRecordID
	cp.EVVRecordID = &id
	s.visits[visitID] = &cp
	return nil
}
