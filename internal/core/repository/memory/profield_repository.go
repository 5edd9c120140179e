package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// ProFieldRepository implements domain.ProFieldRepository in memory
type ProFieldRepository struct {
	mu     sync.RWMutex
	fields map[string]domain.ProField
}

// NewProFieldRepository creates an empty pro field repository
func NewProFieldRepository() *ProFieldRepository {
	return &ProFieldRepository{fields: map[string]domain.ProField{}}
}

// List returns fields in display order
func (r *ProFieldRepository) List(_ context.Context) ([]domain.ProField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ProField, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Upsert creates or replaces a field, keeping the original creation time
func (r *ProFieldRepository) Upsert(_ context.Context, f *domain.ProField) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *f
	if cur, ok := r.fields[f.Key]; ok {
		next.CreatedAt = cur.CreatedAt
	}
	r.fields[f.Key] = next
	return nil
}

// Delete removes a field by key
func (r *ProFieldRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fields[key]; !ok {
		return domain.ErrProFieldNotFound
	}
	delete(r.fields, key)
	return nil
}
