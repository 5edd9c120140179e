// Package events publishes listing changes for downstream consumers (search indexing,
// notifications). Publishing never fails the request that caused it.
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Event kinds, used as the routing key suffix.
const (
	ListingCreated  = "created"
	ListingUpdated  = "updated"
	ListingDeleted  = "deleted"
	ListingToggled  = "toggled"
	routingKeyStart = "listing."
)

// ListingEvent is the message body.
type ListingEvent struct {
	Kind       string    `json:"kind"`
	Resource   string    `json:"resource"`
	ListingID  string    `json:"listingId"`
	UserID     string    `json:"userId,omitempty"`
	IsActive   bool      `json:"isActive"`
	IsFeatured bool      `json:"isFeatured"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewListingEvent describes kind happening to l now.
func NewListingEvent(kind string, l *domain.Listing) ListingEvent {
	return ListingEvent{
		Kind:       kind,
		Resource:   l.Resource,
		ListingID:  l.ID,
		UserID:     l.UserID,
		IsActive:   l.IsActive,
		IsFeatured: l.IsFeatured,
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey is listing.<resource>.<kind>.
func (e ListingEvent) RoutingKey() string {
	return routingKeyStart + e.Resource + "." + e.Kind
}

// Publisher sends listing events.
type Publisher interface {
	Publish(ctx context.Context, event ListingEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, ListingEvent) error { return nil }
func (Nop) Close() error                                 { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []ListingEvent
}

func (r *Recorder) Publish(_ context.Context, e ListingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []ListingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *Recorder) Close() error { return nil }
