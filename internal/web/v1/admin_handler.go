package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
)

// AdminHandler serves the dashboard's users, stats and pro-field routes
type AdminHandler struct {
	users     *logicv1.UserService
	proFields *logicv1.ProFieldService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users *logicv1.UserService, proFields *logicv1.ProFieldService) *AdminHandler {
	return &AdminHandler{users: users, proFields: proFields}
}

// Users handles GET /api/admin/users?accountType=
func (h *AdminHandler) Users(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	users, err := h.users.List(ctx, domain.UserFilter{AccountType: c.Query("accountType"), Role: c.Query("role")})
	if err != nil {
		writeError(c, span, logger, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	stats, err := h.users.Stats(ctx)
	if err != nil {
		writeError(c, span, logger, "Failed to compute stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ProFields handles GET /api/admin/pro-fields
func (h *AdminHandler) ProFields(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	fields, err := h.proFields.List(ctx)
	if err != nil {
		writeError(c, span, logger, "Failed to list pro fields", err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

// SaveProField handles POST /api/admin/pro-fields
func (h *AdminHandler) SaveProField(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.ProField
	if !bindJSON(c, span, logger, &req) {
		return
	}
	field, err := h.proFields.Save(ctx, req)
	if err != nil {
		writeError(c, span, logger, "Failed to save pro field", err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// DeleteProField handles DELETE /api/admin/pro-fields/:key
func (h *AdminHandler) DeleteProField(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	if err := h.proFields.Delete(ctx, c.Param("key")); err != nil {
		writeError(c, span, logger, "Failed to delete pro field", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
