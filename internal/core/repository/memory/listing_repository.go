// Package memory provides in-process repositories used when no database is configured
// and by end-to-end tests of the HTTP surface.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// ListingRepository implements domain.ListingRepository in memory
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
}

// NewListingRepository creates an empty listing repository
func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: map[string]domain.Listing{}}
}

func cloneListing(l domain.Listing) domain.Listing {
	l.Attributes = maps.Clone(l.Attributes)
	if l.Attributes == nil {
		l.Attributes = map[string]any{}
	}
	l.Images = slices.Clone(l.Images)
	if l.Images == nil {
		l.Images = []string{}
	}
	return l
}

// List returns the listings of one resource, newest first
func (r *ListingRepository) List(_ context.Context, resource string, filter domain.ListingFilter) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Listing{}
	for _, l := range r.listings {
		if l.Resource != resource {
			continue
		}
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Role != "" && l.Role != filter.Role {
			continue
		}
		out = append(out, cloneListing(l))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get retrieves one listing of a resource
func (r *ListingRepository) Get(_ context.Context, resource, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok || l.Resource != resource {
		return nil, domain.ErrListingNotFound
	}
	c := cloneListing(l)
	return &c, nil
}

// Create stores a listing whose id is already set
func (r *ListingRepository) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[l.ID]; exists {
		return fmt.Errorf("listing %s already stored", l.ID)
	}
	r.listings[l.ID] = cloneListing(*l)
	return nil
}

// Update replaces a stored listing
func (r *ListingRepository) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.listings[l.ID]
	if !ok || cur.Resource != l.Resource {
		return domain.ErrListingNotFound
	}
	next := cloneListing(*l)
	next.CreatedAt = cur.CreatedAt
	r.listings[l.ID] = next
	return nil
}

// Delete removes a listing
func (r *ListingRepository) Delete(_ context.Context, resource, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok || l.Resource != resource {
		return domain.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

// Toggle flips one flag under the write lock
func (r *ListingRepository) Toggle(_ context.Context, resource, id string, flag domain.ListingFlag) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok || l.Resource != resource {
		return nil, domain.ErrListingNotFound
	}
	switch flag {
	case domain.FlagActive:
		l.IsActive = !l.IsActive
	case domain.FlagFeatured:
		l.IsFeatured = !l.IsFeatured
	default:
		return nil, fmt.Errorf("unknown listing flag %q", flag)
	}
	l.UpdatedAt = time.Now().UTC()
	r.listings[id] = l
	c := cloneListing(l)
	return &c, nil
}

// CountByResource aggregates listing counts ordered by resource
func (r *ListingRepository) CountByResource(_ context.Context) ([]domain.ResourceCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byResource := map[string]*domain.ResourceCount{}
	for _, l := range r.listings {
		c, ok := byResource[l.Resource]
		if !ok {
			c = &domain.ResourceCount{Resource: l.Resource}
			byResource[l.Resource] = c
		}
		c.Total++
		if l.IsActive {
			c.Active++
		}
		if l.IsFeatured {
			c.Featured++
		}
	}
	out := make([]domain.ResourceCount, 0, len(byResource))
	for _, c := range byResource {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out, nil
}
