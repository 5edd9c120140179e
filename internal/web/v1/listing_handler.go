package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
	"github.com/duynhne/classifieds-service/middleware"
)

// ListingHandler serves the generic /api/admin/:resource CRUD routes
type ListingHandler struct {
	service *logicv1.ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service *logicv1.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// List handles GET /api/admin/:resource?userId=&role=
func (h *ListingHandler) List(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	resource := c.Param("resource")
	span.SetAttributes(attribute.String("listing.resource", resource))

	listings, err := h.service.List(ctx, resource, domain.ListingFilter{
		UserID: c.Query("userId"),
		Role:   c.Query("role"),
	})
	if err != nil {
		writeError(c, span, logger, "Failed to list listings", err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// Get handles GET /api/admin/:resource/:id
func (h *ListingHandler) Get(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	listing, err := h.service.Get(ctx, c.Param("resource"), c.Param("id"))
	if err != nil {
		writeError(c, span, logger, "Failed to get listing", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Create handles POST /api/admin/:resource
func (h *ListingHandler) Create(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.ListingInput
	if !bindJSON(c, span, logger, &req) {
		return
	}

	listing, err := h.service.Create(ctx, middleware.ActorFromContext(c), c.Param("resource"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to create listing", err)
		return
	}

	logger.Info("Listing created", zap.String("resource", listing.Resource), zap.String("listing_id", listing.ID))
	c.JSON(http.StatusCreated, listing)
}

// Update handles PUT /api/admin/:resource/:id
func (h *ListingHandler) Update(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.ListingInput
	if !bindJSON(c, span, logger, &req) {
		return
	}

	listing, err := h.service.Update(ctx, middleware.ActorFromContext(c), c.Param("resource"), c.Param("id"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to update listing", err)
		return
	}

	logger.Info("Listing updated", zap.String("resource", listing.Resource), zap.String("listing_id", listing.ID))
	c.JSON(http.StatusOK, listing)
}

// Patch handles PATCH /api/admin/:resource/:id
func (h *ListingHandler) Patch(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.ListingPatch
	if !bindJSON(c, span, logger, &req) {
		return
	}

	listing, err := h.service.Patch(ctx, middleware.ActorFromContext(c), c.Param("resource"), c.Param("id"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to patch listing", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Delete handles DELETE /api/admin/:resource/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	id := c.Param("id")
	if err := h.service.Delete(ctx, middleware.ActorFromContext(c), c.Param("resource"), id); err != nil {
		writeError(c, span, logger, "Failed to delete listing", err)
		return
	}

	logger.Info("Listing deleted", zap.String("listing_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ToggleActive handles PATCH /api/admin/:resource/:id/toggle-active
func (h *ListingHandler) ToggleActive(c *gin.Context) {
	h.toggle(c, domain.FlagActive)
}

// ToggleFeatured handles PATCH /api/admin/:resource/:id/toggle-featured
func (h *ListingHandler) ToggleFeatured(c *gin.Context) {
	h.toggle(c, domain.FlagFeatured)
}

func (h *ListingHandler) toggle(c *gin.Context, flag domain.ListingFlag) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	res, err := h.service.Toggle(ctx, middleware.ActorFromContext(c), c.Param("resource"), c.Param("id"), flag)
	if err != nil {
		writeError(c, span, logger, "Failed to toggle listing", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Details handles GET /api/listings/:resource/:id/details
func (h *ListingHandler) Details(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	view, err := h.service.Details(ctx, c.Param("resource"), c.Param("id"))
	if err != nil {
		writeError(c, span, logger, "Failed to render listing", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
