package images

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repo used in dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]ImageRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]ImageRecord)}
}

// Create stores rec. The vars map is copied so callers cannot mutate stored state.
func (r *MemoryRepo) Create(ctx context.Context, rec ImageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.DictOfVars = rec.DictOfVars.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = rec
	return nil
}

// GetByID returns the record with the given id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return ImageRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return ImageRecord{}, ErrNotFound
	}
	rec.DictOfVars = rec.DictOfVars.Clone()
	return rec, nil
}

var _ Repo = (*MemoryRepo)(nil)
