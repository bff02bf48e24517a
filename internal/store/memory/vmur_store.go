package memory

import (
	"context"
	"sync"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// VMURStore is a thread-safe in-memory providers.VMURStore.
type VMURStore struct {
	mu    sync.RWMutex
	vmurs map[care.ID]*care.VMUR
}

// NewVMURStore constructs an empty VMURStore.
func NewVMURStore() *VMURStore {
	return &VMURStore{vmurs: make(map[care.ID]*care.VMUR)}
}

func (s *VMURStore) CreateVMUR(_ context.Context, v *care.VMUR) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vmurs[v.ID] = &cp
	return nil
}

func (s *VMURStore) GetVMUR(_ context.Context, id care.ID) (*care.VMUR, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vmurs[id]
	if !ok {
		return nil, care.NewNotFoundError("vmur.id", "vmur not found")
	}
	cp := *v
	return &cp, nil
}

func (s *VMURStore) UpdateVMUR(_ context.Context, v *care.VMUR) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vmurs[v.ID]; !ok {
		return care.NewNotFoundError("vmur.id", "vmur not found")
	}
	cp := *v
	s.vmurs[v.ID] = &cp
	return nil
}

func (s *VMURStore) PendingVMURs(_ context.Context) ([]*care.VMUR, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*care.VMUR
	for _, v := range s.vmurs {
		if v.ApprovalStatus == care.VMURPending {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}
