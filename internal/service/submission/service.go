package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	model "github.com/zhouzirui/submission-desk/backend/internal/model/submission"
	"github.com/zhouzirui/submission-desk/backend/internal/storage"
)

var (
	ErrNotFound = errors.New("submission not found")
	ErrStorage  = errors.New("submission storage failed")
)

// StorageError reports a failed load or save when the service runs in strict mode.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s submissions: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets callers match any storage failure with errors.Is(err, ErrStorage).
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Options tunes the storage failure policy.
type Options struct {
	// FailOpen treats a failed load as an empty collection and a failed save as
	// success. Failures are still logged.
	FailOpen bool
	Logger   *slog.Logger
}

// Service runs every operation as load, mutate in memory, save.
// Mutations hold the write lock for the whole cycle so concurrent requests in
// this process cannot overwrite each other's changes.
type Service struct {
	mu       sync.RWMutex
	store    storage.Store
	failOpen bool
	logger   *slog.Logger
}

// NewService binds the service to a store.
func NewService(store storage.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		failOpen: opts.FailOpen,
		logger:   logger,
	}
}

// Create appends sub to the end of the collection.
func (s *Service) Create(ctx context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	items = append(items, sub)
	if err := s.save(ctx, items); err != nil {
		return err
	}

	s.logger.Info("submission created", "name", sub.Name, "index", len(items)-1)
	return nil
}

// Read returns the submission at the 0-based index in stored order.
func (s *Service) Read(ctx context.Context, index int) (model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.load(ctx)
	if err != nil {
		return model.Submission{}, err
	}
	if index < 0 || index >= len(items) {
		return model.Submission{}, ErrNotFound
	}
	return items[index], nil
}

// Update replaces the first submission whose name matches, keeping its position.
func (s *Service) Update(ctx context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := model.IndexOf(items, sub.Name)
	if idx < 0 {
		s.logger.Info("submission not found for update", "name", sub.Name)
		return ErrNotFound
	}
	items[idx] = sub
	if err := s.save(ctx, items); err != nil {
		return err
	}

	s.logger.Info("submission updated", "name", sub.Name, "index", idx)
	return nil
}

// Delete removes every submission with the given name and reports how many went.
func (s *Service) Delete(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	kept, removed := model.RemoveNamed(items, name)
	if removed == 0 {
		s.logger.Info("submission not found for delete", "name", name)
		return 0, ErrNotFound
	}
	if err := s.save(ctx, kept); err != nil {
		return 0, err
	}

	s.logger.Info("submission deleted", "name", name, "count", removed)
	return removed, nil
}

// List returns the whole collection in stored order. The result is never nil.
func (s *Service) List(ctx context.Context) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) ([]model.Submission, error) {
	items, err := s.store.Load(ctx)
	if err != nil {
		if !s.failOpen {
			s.logger.Error("failed to load submissions", "error", err)
			return nil, &StorageError{Op: "load", Err: err}
		}
		s.logger.Error("failed to load submissions, continuing with empty collection", "error", err)
		return []model.Submission{}, nil
	}
	if items == nil {
		items = []model.Submission{}
	}
	return items, nil
}

func (s *Service) save(ctx context.Context, items []model.Submission) error {
	if err := s.store.Save(ctx, items); err != nil {
		s.logger.Error("failed to save submissions", "error", err, "count", len(items))
		if !s.failOpen {
			return &StorageError{Op: "save", Err: err}
		}
	}
	return nil
}
