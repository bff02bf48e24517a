package memory

import (
	"context"
	"sync"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// GeofenceStore is a thread-safe in-memory providers.GeofenceStore. Lookups
// by service address are keyed on the geofence's own id, following the
// module's deterministic-geofence-derivation decision: one geofence per
// address, addressed by a stable surrogate key until a real address
// service supplies one.
type GeofenceStore struct {
	mu        sync.RWMutex
	geofences map[care.ID]*care.Geofence
}

// NewGeofenceStore constructs an empty GeofenceStore.
func NewGeofenceStore() *GeofenceStore {
	return &GeofenceStore{geofences: make(map[care.ID]*care.Geofence)}
}

func (s *GeofenceStore) CreateGeofence(_ context.Context, g *care.Geofence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.geofences[g.ID] = &cp
	return nil
}

func (s *GeofenceStore) GetGeofenceForAddress(_ context.Context, addressID care.ID) (*care.Geofence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.geofences[addressID]
	if !ok {
		return nil, care.NewNotFoundError("geofence.addressId", "geofence not found for address")
	}
	cp := *g
	return &cp, nil
}

func (s *GeofenceStore) UpdateGeofence(_ context.Context, g *care.Geofence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.geofences[g.ID]; !ok {
		return care.NewNotFoundError("geofence.id", "geofence not found")
	}
	cp := *g
	s.geofences[g.ID] = &cp
	return nil
}
