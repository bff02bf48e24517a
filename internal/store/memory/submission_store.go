package memory

import (
	"context"
	"sync"
	"time"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// SubmissionStore is a thread-safe in-memory providers.SubmissionStore.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[care.ID]*care.AggregatorSubmission
}

// NewSubmissionStore constructs an empty SubmissionStore.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{submissions: make(map[care.ID]*care.AggregatorSubmission)}
}

func (s *SubmissionStore) CreateSubmission(_ context.Context, sub *care.AggregatorSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.submissions[sub.ID] = &cp
	return nil
}

func (s *SubmissionStore) GetSubmission(_ context.Context, id care.ID) (*care.AggregatorSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, care.NewNotFoundError("aggregatorSubmission.id", "submission not found")
	}
	cp := *sub
	return &cp, nil
}

func (s *SubmissionStore) UpdateSubmission(_ context.Context, sub *care.AggregatorSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; !ok {
		return care.NewNotFoundError("aggregatorSubmission.id", "submission not found")
	}
	cp := *sub
	s.submissions[sub.ID] = &cp
	return nil
}

func (s *SubmissionStore) PendingRetries(_ context.Context, now time.Time) ([]*care.AggregatorSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*care.AggregatorSubmission
	for _, sub := range s.submissions {
		if sub.Status != care.SubmissionRetry {
			continue
		}
		if sub.NextRetryAt != nil && sub.NextRetryAt.After(now) {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}
