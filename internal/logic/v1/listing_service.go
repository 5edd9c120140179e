package v1

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/details"
	"github.com/duynhne/classifieds-service/internal/events"
	"github.com/duynhne/classifieds-service/middleware"
)

// ListingService implements the generic CRUD contract shared by every catalog resource
type ListingService struct {
	repo    domain.ListingRepository
	catalog *catalog.Catalog
	events  events.Publisher
	logger  *zap.Logger
}

// NewListingService creates a new listing service
func NewListingService(repo domain.ListingRepository, cat *catalog.Catalog, pub events.Publisher, logger *zap.Logger) *ListingService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &ListingService{repo: repo, catalog: cat, events: pub, logger: logger}
}

func (s *ListingService) resource(slug string) (*catalog.Resource, error) {
	r, ok := s.catalog.Lookup(slug)
	if !ok {
		return nil, fmt.Errorf("resource %q: %w", slug, domain.ErrUnknownResource)
	}
	return r, nil
}

// List returns the listings of a resource
func (s *ListingService) List(ctx context.Context, resource string, filter domain.ListingFilter) ([]domain.Listing, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
	))
	defer span.End()

	if _, err := s.resource(resource); err != nil {
		return nil, err
	}
	listings, err := s.repo.List(ctx, resource, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	span.SetAttributes(attribute.Int("listing.count", len(listings)))
	return listings, nil
}

// Get retrieves one listing
func (s *ListingService) Get(ctx context.Context, resource, id string) (*domain.Listing, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
		attribute.String("listing.id", id),
	))
	defer span.End()

	if _, err := s.resource(resource); err != nil {
		return nil, err
	}
	l, err := s.repo.Get(ctx, resource, id)
	if err != nil {
		span.SetAttributes(attribute.Bool("listing.found", false))
		return nil, fmt.Errorf("get %s/%s: %w", resource, id, err)
	}
	return l, nil
}

// validate runs the catalog schema and the image rules over a full record
func validateListing(r *catalog.Resource, title string, attrs map[string]any, images []string) error {
	fields := r.Validate(title, attrs)
	if len(images) > attach.MaxImages {
		fields["images"] = fmt.Sprintf("At most %d images are allowed", attach.MaxImages)
	} else if slices.ContainsFunc(images, func(u string) bool { return !attach.IsStableURL(u) }) {
		fields["images"] = "Images must be uploaded before they are attached"
	}
	return domain.NewValidationError(fields)
}

// Create validates and stores a new listing owned by the caller.
// Admins may create on behalf of another user by naming userId.
func (s *ListingService) Create(ctx context.Context, actor domain.Actor, resource string, in domain.ListingInput) (*domain.Listing, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
	))
	defer span.End()

	r, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	if in.Attributes == nil {
		in.Attributes = map[string]any{}
	}
	if err := validateListing(r, in.Title, in.Attributes, in.Images); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	owner, role := actor.UserID, actor.Role
	if actor.IsAdmin() && in.UserID != "" {
		owner = in.UserID
		if in.Role != "" {
			role = in.Role
		}
	}

	now := time.Now().UTC()
	l := &domain.Listing{
		ID:         uuid.NewString(),
		Resource:   resource,
		Title:      in.Title,
		Attributes: in.Attributes,
		Images:     slices.Clone(in.Images),
		IsActive:   true,
		UserID:     owner,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		l.IsFeatured = *in.IsFeatured
	}

	if err := s.repo.Create(ctx, l); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create %s: %w", resource, err)
	}

	span.SetAttributes(attribute.String("listing.id", l.ID))
	span.AddEvent("listing.created")
	s.publish(ctx, events.ListingCreated, l)
	return l, nil
}

// owned loads a listing and checks the caller may change it
func (s *ListingService) owned(ctx context.Context, actor domain.Actor, resource, id string) (*catalog.Resource, *domain.Listing, error) {
	r, err := s.resource(resource)
	if err != nil {
		return nil, nil, err
	}
	cur, err := s.repo.Get(ctx, resource, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s/%s: %w", resource, id, err)
	}
	if !actor.Owns(cur.UserID) {
		return nil, nil, fmt.Errorf("change %s/%s owned by %q: %w", resource, id, cur.UserID, domain.ErrUnauthorized)
	}
	return r, cur, nil
}

// Update replaces a listing with a full record. Ownership never changes; omitted flags keep their value.
func (s *ListingService) Update(ctx context.Context, actor domain.Actor, resource, id string, in domain.ListingInput) (*domain.Listing, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
		attribute.String("listing.id", id),
	))
	defer span.End()

	r, cur, err := s.owned(ctx, actor, resource, id)
	if err != nil {
		return nil, err
	}
	if in.Attributes == nil {
		in.Attributes = map[string]any{}
	}
	if err := validateListing(r, in.Title, in.Attributes, in.Images); err != nil {
		return nil, err
	}

	next := *cur
	next.Title = in.Title
	next.Attributes = in.Attributes
	next.Images = slices.Clone(in.Images)
	if next.Images == nil {
		next.Images = []string{}
	}
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		next.IsFeatured = *in.IsFeatured
	}
	return s.save(ctx, span, &next)
}

// Patch merges a partial record into the current one. Attribute keys set to null are removed.
func (s *ListingService) Patch(ctx context.Context, actor domain.Actor, resource, id string, p domain.ListingPatch) (*domain.Listing, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.patch", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
		attribute.String("listing.id", id),
	))
	defer span.End()

	r, cur, err := s.owned(ctx, actor, resource, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	next.Attributes = maps.Clone(cur.Attributes)
	if next.Attributes == nil {
		next.Attributes = map[string]any{}
	}
	if p.Title != nil {
		next.Title = *p.Title
	}
	for k, v := range p.Attributes {
		if v == nil {
			delete(next.Attributes, k)
			continue
		}
		next.Attributes[k] = v
	}
	if p.Images != nil {
		next.Images = slices.Clone(*p.Images)
		if next.Images == nil {
			next.Images = []string{}
		}
	}
	if p.IsActive != nil {
		next.IsActive = *p.IsActive
	}
	if p.IsFeatured != nil {
		next.IsFeatured = *p.IsFeatured
	}

	if err := validateListing(r, next.Title, next.Attributes, next.Images); err != nil {
		return nil, err
	}
	return s.save(ctx, span, &next)
}

func (s *ListingService) save(ctx context.Context, span trace.Span, l *domain.Listing) (*domain.Listing, error) {
	l.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update %s/%s: %w", l.Resource, l.ID, err)
	}
	span.AddEvent("listing.updated")
	s.publish(ctx, events.ListingUpdated, l)
	return l, nil
}

// Delete removes a listing
func (s *ListingService) Delete(ctx context.Context, actor domain.Actor, resource, id string) error {
	ctx, span := middleware.StartSpan(ctx, "listing.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
		attribute.String("listing.id", id),
	))
	defer span.End()

	_, cur, err := s.owned(ctx, actor, resource, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, resource, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete %s/%s: %w", resource, id, err)
	}
	span.AddEvent("listing.deleted")
	s.publish(ctx, events.ListingDeleted, cur)
	return nil
}

// Toggle flips isActive or isFeatured server-side. The other flag and every other field are untouched.
func (s *ListingService) Toggle(ctx context.Context, actor domain.Actor, resource, id string, flag domain.ListingFlag) (*domain.ToggleResult, error) {
	ctx, span := middleware.StartSpan(ctx, "listing.toggle", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.resource", resource),
		attribute.String("listing.id", id),
		attribute.String("listing.flag", string(flag)),
	))
	defer span.End()

	if _, _, err := s.owned(ctx, actor, resource, id); err != nil {
		return nil, err
	}
	l, err := s.repo.Toggle(ctx, resource, id, flag)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("toggle %s on %s/%s: %w", flag, resource, id, err)
	}
	s.publish(ctx, events.ListingToggled, l)
	return &domain.ToggleResult{ID: l.ID, IsActive: l.IsActive, IsFeatured: l.IsFeatured}, nil
}

// Details renders a listing through the resource's display table
func (s *ListingService) Details(ctx context.Context, resource, id string) (*details.View, error) {
	l, err := s.Get(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	view := details.NewRenderer(s.catalog).View(l)
	return &view, nil
}

func (s *ListingService) publish(ctx context.Context, kind string, l *domain.Listing) {
	middleware.RecordListingMutation(l.Resource, kind)
	if err := s.events.Publish(ctx, events.NewListingEvent(kind, l)); err != nil {
		s.logger.Warn("Failed to publish listing event",
			zap.String("kind", kind),
			zap.String("listing_id", l.ID),
			zap.Error(err),
		)
	}
}
