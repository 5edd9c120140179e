package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Resource is the CRUD surface of one listing category at /api/admin/<name>.
// Successful mutations invalidate the resource's cached lists.
type Resource[T any] struct {
	client *Client
	name   string
	path   string
}

// NewResource binds a resource name such as "heavy-equipment".
func NewResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{client: c, name: name, path: "/api/admin/" + url.PathEscape(name)}
}

// Name is the resource path segment.
func (r *Resource[T]) Name() string { return r.name }

// Key is the cache prefix of the resource's queries.
func (r *Resource[T]) Key() string { return "resource:" + r.name }

// List fetches the resource's records through the cache.
func (r *Resource[T]) List(ctx context.Context, filter domain.ListingFilter) ([]T, error) {
	q := url.Values{}
	if filter.UserID != "" {
		q.Set("userId", filter.UserID)
	}
	if filter.Role != "" {
		q.Set("role", filter.Role)
	}
	path := r.path
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return Cached(ctx, r.client.cache, r.Key()+path, func(ctx context.Context) ([]T, error) {
		var out []T
		err := r.client.Do(ctx, http.MethodGet, path, nil, &out)
		return out, err
	})
}

// Get fetches one record, bypassing the cache (edit pre-fill).
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) mutate(ctx context.Context, method, path string, body any, out any) error {
	if err := r.client.Do(ctx, method, path, body, out); err != nil {
		return err
	}
	r.client.cache.Invalidate(r.Key())
	return nil
}

// Create posts a record without id.
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := r.mutate(ctx, http.MethodPost, r.path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a record.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (*T, error) {
	var out T
	if err := r.mutate(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch merges a partial record.
func (r *Resource[T]) Patch(ctx context.Context, id string, body any) (*T, error) {
	var out T
	if err := r.mutate(ctx, http.MethodPatch, r.path+"/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
}

// ToggleActive flips isActive server-side.
func (r *Resource[T]) ToggleActive(ctx context.Context, id string) (*domain.ToggleResult, error) {
	return r.toggle(ctx, id, "toggle-active")
}

// ToggleFeatured flips isFeatured server-side.
func (r *Resource[T]) ToggleFeatured(ctx context.Context, id string) (*domain.ToggleResult, error) {
	return r.toggle(ctx, id, "toggle-featured")
}

func (r *Resource[T]) toggle(ctx context.Context, id, action string) (*domain.ToggleResult, error) {
	var out domain.ToggleResult
	if err := r.mutate(ctx, http.MethodPatch, r.path+"/"+url.PathEscape(id)+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
