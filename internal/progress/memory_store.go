package progress

import (
	"context"
	"sync"

	"github.com/julianstephens/tandem/internal/models"
)

// MemoryStore keeps encoded records in process memory. Records are stored
// encoded so callers can never mutate a saved record through an alias.
type MemoryStore struct {
	mu      sync.Mutex
	records map[models.Flow][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[models.Flow][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, flow models.Flow) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, ok := s.records[flow]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return Decode(data)
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[rec.Flow] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, flow models.Flow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.records, flow)
	s.mu.Unlock()
	return nil
}
