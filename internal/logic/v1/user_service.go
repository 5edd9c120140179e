package v1

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/middleware"
)

// UserService backs the admin users, agencies and analytics sections
type UserService struct {
	users      domain.UserRepository
	categories domain.CategoryRepository
	listings   domain.ListingRepository
}

// NewUserService creates a new user service
func NewUserService(users domain.UserRepository, categories domain.CategoryRepository, listings domain.ListingRepository) *UserService {
	return &UserService{users: users, categories: categories, listings: listings}
}

// List returns users, optionally narrowed by account type
func (s *UserService) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "user.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.account_type", filter.AccountType),
	))
	defer span.End()

	users, err := s.users.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Stats aggregates the dashboard counters
func (s *UserService) Stats(ctx context.Context) (*domain.Stats, error) {
	ctx, span := middleware.StartSpan(ctx, "stats.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	users, err := s.users.List(ctx, domain.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	categories, err := s.categories.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	counts, err := s.listings.CountByResource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	stats := &domain.Stats{
		Users:       len(users),
		Categories:  len(categories),
		ByResource:  counts,
		GeneratedAt: time.Now().UTC(),
	}
	for _, u := range users {
		if u.AccountType == domain.AccountPro {
			stats.ProUsers++
		}
	}
	for _, c := range counts {
		stats.Listings += c.Total
	}
	return stats, nil
}
