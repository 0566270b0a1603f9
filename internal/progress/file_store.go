package progress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/tandem/internal/models"
)

// FileStore keeps one JSON file per flow inside a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(flow models.Flow) string {
	return filepath.Join(s.dir, string(flow)+".json")
}

func (s *FileStore) Load(ctx context.Context, flow models.Flow) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(flow))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}
	return Decode(data)
}

// Save writes atomically via a temp file and rename, so a crash mid-write
// leaves the previous record intact.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}

	target := s.path(rec.Flow)
	tmpPath := fmt.Sprintf("%s.tmp.%d", target, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context, flow models.Flow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(flow)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}
