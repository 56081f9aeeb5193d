package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zhouzirui/submission-desk/backend/internal/model/submission"
)

// FileStore keeps the document in a single JSON file.
//
// Save writes a sibling temp file, syncs it and renames it over the target, so a
// reader never observes a half-written document.
type FileStore struct {
	mu         sync.Mutex // serialises Save
	path       string
	quarantine bool
	logger     *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithQuarantine makes Save move a document it cannot fully read aside before
// replacing it, instead of overwriting the bytes.
func WithQuarantine(enabled bool) FileOption {
	return func(s *FileStore) {
		s.quarantine = enabled
	}
}

// WithFileLogger sets the logger used for skipped records and quarantine notices.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	s := &FileStore{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. It never modifies the file.
func (s *FileStore) Load(ctx context.Context) ([]submission.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []submission.Submission{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}

	items, skipped, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped unreadable submission records", "path", s.path, "skipped", skipped)
	}
	return items, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, items []submission.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quarantine {
		s.quarantineIfLossy()
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}

// quarantineIfLossy moves the current document aside when overwriting it would
// drop bytes Load could not turn into submissions.
func (s *FileStore) quarantineIfLossy() {
	current, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	_, skipped, err := Decode(current)
	if err == nil && skipped == 0 {
		return
	}

	target := fmt.Sprintf("%s.corrupt-%s", s.path, uuid.NewString())
	if err := os.Rename(s.path, target); err != nil {
		s.logger.Error("failed to quarantine document", "path", s.path, "error", err)
		return
	}
	s.logger.Warn("quarantined document before overwrite", "path", s.path, "moved_to", target, "skipped", skipped)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
