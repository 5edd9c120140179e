package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
)

// CategoryHandler serves the category tree routes
type CategoryHandler struct {
	service *logicv1.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *logicv1.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List handles GET /api/admin/categories?active=true
func (h *CategoryHandler) List(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	categories, err := h.service.List(ctx, c.Query("active") == "true")
	if err != nil {
		writeError(c, span, logger, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Get handles GET /api/admin/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	category, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, span, logger, "Failed to get category", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// Create handles POST /api/admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.CategoryInput
	if !bindJSON(c, span, logger, &req) {
		return
	}
	category, err := h.service.Create(ctx, req)
	if err != nil {
		writeError(c, span, logger, "Failed to create category", err)
		return
	}
	logger.Info("Category created", zap.String("category_id", category.ID), zap.String("slug", category.Slug))
	c.JSON(http.StatusCreated, category)
}

// Update handles PUT /api/admin/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.CategoryInput
	if !bindJSON(c, span, logger, &req) {
		return
	}
	category, err := h.service.Update(ctx, c.Param("id"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to update category", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete handles DELETE /api/admin/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	if err := h.service.Delete(ctx, c.Param("id")); err != nil {
		writeError(c, span, logger, "Failed to delete category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CreateSubcategory handles POST /api/admin/categories/:id/subcategories
func (h *CategoryHandler) CreateSubcategory(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.SubcategoryInput
	if !bindJSON(c, span, logger, &req) {
		return
	}
	sub, err := h.service.CreateSubcategory(ctx, c.Param("id"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to create subcategory", err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// UpdateSubcategory handles PUT /api/admin/subcategories/:id
func (h *CategoryHandler) UpdateSubcategory(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.SubcategoryInput
	if !bindJSON(c, span, logger, &req) {
		return
	}
	sub, err := h.service.UpdateSubcategory(ctx, c.Param("id"), req)
	if err != nil {
		writeError(c, span, logger, "Failed to update subcategory", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// DeleteSubcategory handles DELETE /api/admin/subcategories/:id
func (h *CategoryHandler) DeleteSubcategory(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	if err := h.service.DeleteSubcategory(ctx, c.Param("id")); err != nil {
		writeError(c, span, logger, "Failed to delete subcategory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
