package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/middleware"
)

// Handlers groups every v1 handler
type Handlers struct {
	Listings   *ListingHandler
	Categories *CategoryHandler
	Auth       *AuthHandler
	Uploads    *UploadHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the API under api (normally the "/api" group).
// Static admin segments (categories, users, stats, pro-fields) take precedence over :resource.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, tokens *middleware.TokenIssuer, logger *zap.Logger) {
	auth := middleware.AuthMiddleware(tokens, logger)
	optional := middleware.OptionalAuth(tokens)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", auth, h.Auth.Me)
	}

	// Anonymous uploads are allowed so the signup wizard can attach documents before the account exists.
	api.POST("/upload", optional, h.Uploads.Upload)
	api.GET("/files/:key", h.Uploads.Serve)

	api.GET("/listings/:resource/:id/details", h.Listings.Details)

	admin := api.Group("/admin")
	{
		admin.GET("/categories", h.Categories.List)
		admin.GET("/categories/:id", h.Categories.Get)
		admin.POST("/categories", auth, adminOnly, h.Categories.Create)
		admin.PUT("/categories/:id", auth, adminOnly, h.Categories.Update)
		admin.DELETE("/categories/:id", auth, adminOnly, h.Categories.Delete)
		admin.POST("/categories/:id/subcategories", auth, adminOnly, h.Categories.CreateSubcategory)
		admin.PUT("/subcategories/:id", auth, adminOnly, h.Categories.UpdateSubcategory)
		admin.DELETE("/subcategories/:id", auth, adminOnly, h.Categories.DeleteSubcategory)

		admin.GET("/users", auth, adminOnly, h.Admin.Users)
		admin.GET("/stats", auth, adminOnly, h.Admin.Stats)
		admin.GET("/pro-fields", h.Admin.ProFields)
		admin.POST("/pro-fields", auth, adminOnly, h.Admin.SaveProField)
		admin.DELETE("/pro-fields/:key", auth, adminOnly, h.Admin.DeleteProField)

		admin.GET("/:resource", optional, h.Listings.List)
		admin.GET("/:resource/:id", optional, h.Listings.Get)
		admin.POST("/:resource", auth, h.Listings.Create)
		admin.PUT("/:resource/:id", auth, h.Listings.Update)
		admin.PATCH("/:resource/:id", auth, h.Listings.Patch)
		admin.DELETE("/:resource/:id", auth, h.Listings.Delete)
		admin.PATCH("/:resource/:id/toggle-active", auth, h.Listings.ToggleActive)
		admin.PATCH("/:resource/:id/toggle-featured", auth, h.Listings.ToggleFeatured)
	}
}
