package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/config"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

func TestListingEvent_RoutingKey(t *testing.T) {
	e := NewListingEvent(ListingToggled, &domain.Listing{ID: "1", Resource: "heavy-equipment", IsFeatured: true})
	assert.Equal(t, "listing.heavy-equipment.toggled", e.RoutingKey())
	assert.True(t, e.IsFeatured)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestNew_DisabledIsNop(t *testing.T) {
	p, err := New(config.EventsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), ListingEvent{}))
	assert.NoError(t, p.Close())
}
