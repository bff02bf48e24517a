package memory

import (
	"context"
	"sync"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// ClientDirectory is an in-memory providers.ClientProvider backed by a
// seeded address book, standing in for the external client-management
// system this module treats as an injected collaborator.
type ClientDirectory struct {
	mu        sync.RWMutex
	addresses map[care.ID]care.Address
	clients   map[care.ID]providers.ClientEVVView
}

// NewClientDirectory constructs an empty ClientDirectory.
func NewClientDirectory() *ClientDirectory {
	return &ClientDirectory{
		addresses: make(map[care.ID]care.Address),
		clients:   make(map[care.ID]providers.ClientEVVView),
	}
}

// Put registers (or replaces) the service address on file for clientID.
func (d *ClientDirectory) Put(clientID care.ID, addr care.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addresses[clientID] = addr
}

// PutClient registers (or replaces) the EVV-facing client detail on file
// for clientID.
func (d *ClientDirectory) PutClient(clientID care.ID, view providers.ClientEVVView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	view.ID = clientID
	d.clients[clientID] = view
}

func (d *ClientDirectory) ClientAddress(_ context.Context, clientID care.ID) (*care.Address, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	addr, ok := d.addresses[clientID]
	if !ok {
		return nil, care.NewNotFoundError("client.id", "no address on file for client")
	}
	cp := addr
	return &cp, nil
}

func (d *ClientDirectory) GetClientForEVV(_ context.Context, clientID care.ID) (*providers.ClientEVVView, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	view, ok := d.clients[clientID]
	if !ok {
		return nil, care.NewNotFoundError("client.id", "no client detail on file")
	}
	cp := view
	return &cp, nil
}

// CaregiverDirectory is an in-memory providers.CaregiverProvider backed by
// seeded skill sets and an active/inactive roster, standing in for the
// external HR/credentialing system this module treats as an injected
// collaborator.
type CaregiverDirectory struct {
	mu                  sync.RWMutex
	skills              map[care.ID]map[string]bool
	active              map[care.ID]bool
	serviceAuthorization map[care.ID]providers.CanProvideServiceResult
}

// NewCaregiverDirectory constructs an empty CaregiverDirectory.
func NewCaregiverDirectory() *CaregiverDirectory {
	return &CaregiverDirectory{
		skills:               make(map[care.ID]map[string]bool),
		active:               make(map[care.ID]bool),
		serviceAuthorization: make(map[care.ID]providers.CanProvideServiceResult),
	}
}

// PutServiceAuthorization registers the canProvideService outcome returned
// for caregiverID, regardless of serviceTypeCode/clientID requested; the
// in-memory directory does not model per-service-type credentialing.
func (d *CaregiverDirectory) PutServiceAuthorization(caregiverID care.ID, result providers.CanProvideServiceResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.serviceAuthorization[caregiverID] = result
}

// Put registers caregiverID's skill set and active status.
func (d *CaregiverDirectory) Put(caregiverID care.ID, active bool, skills []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[s] = true
	}
	d.skills[caregiverID] = set
	d.active[caregiverID] = active
}

func (d *CaregiverDirectory) HasSkills(_ context.Context, caregiverID care.ID, required []string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set, ok := d.skills[caregiverID]
	if !ok {
		return false, care.NewNotFoundError("caregiver.id", "caregiver not found")
	}
	for _, r := range required {
		if !set[r] {
			return false, nil
		}
	}
	return true, nil
}

func (d *CaregiverDirectory) IsActive(_ context.Context, caregiverID care.ID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	active, ok := d.active[caregiverID]
	if !ok {
		return false, care.NewNotFoundError("caregiver.id", "caregiver not found")
	}
	return active, nil
}

// CanProvideService reports the registered service-authorization outcome
// for caregiverID, defaulting to authorized if none was explicitly seeded
// (standing in for a credentialing system that authorizes by default absent
// a specific restriction).
func (d *CaregiverDirectory) CanProvideService(_ context.Context, caregiverID care.ID, _ string, _ care.ID) (providers.CanProvideServiceResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.active[caregiverID]; !ok {
		return providers.CanProvideServiceResult{}, care.NewNotFoundError("caregiver.id", "caregiver not found")
	}
	if result, ok := d.serviceAuthorization[caregiverID]; ok {
		return result, nil
	}
	return providers.CanProvideServiceResult{Authorized: true}, nil
}
