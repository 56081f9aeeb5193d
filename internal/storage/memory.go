package storage

import (
	"context"
	"sync"

	"github.com/zhouzirui/submission-desk/backend/internal/model/submission"
)

// MemoryStore implements Store in process memory. It copies on every Load and
// Save so callers never share slices with it.
type MemoryStore struct {
	mu      sync.Mutex
	items   []submission.Submission
	loadErr error
	saveErr error
	saves   int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied submissions.
func NewMemoryStore(items []submission.Submission) *MemoryStore {
	return &MemoryStore{items: append([]submission.Submission(nil), items...)}
}

// FailLoad makes subsequent Loads return err; nil clears it.
func (s *MemoryStore) FailLoad(err error) {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
}

// FailSave makes subsequent Saves return err; nil clears it.
func (s *MemoryStore) FailSave(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// Saves reports how many Saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]submission.Submission{}, s.items...), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, items []submission.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.items = append([]submission.Submission(nil), items...)
	s.saves++
	return nil
}
