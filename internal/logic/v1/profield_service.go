package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// ProFieldService manages the pro profile schema
type ProFieldService struct {
	repo domain.ProFieldRepository
}

// NewProFieldService creates a new pro field service
func NewProFieldService(repo domain.ProFieldRepository) *ProFieldService {
	return &ProFieldService{repo: repo}
}

// List returns the schema in display order
func (s *ProFieldService) List(ctx context.Context) ([]domain.ProField, error) {
	fields, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pro fields: %w", err)
	}
	return fields, nil
}

// Save creates or replaces a field; the key is normalized like a slug
func (s *ProFieldService) Save(ctx context.Context, f domain.ProField) (*domain.ProField, error) {
	f.Key = Slugify(f.Key)
	if f.Key == "" {
		return nil, domain.NewValidationError(map[string]string{"key": "Key must contain letters or digits"})
	}
	f.CreatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, &f); err != nil {
		return nil, fmt.Errorf("save pro field %q: %w", f.Key, err)
	}
	return &f, nil
}

// Delete removes a field
func (s *ProFieldService) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete pro field %q: %w", key, err)
	}
	return nil
}
