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

// AuthHandler serves signup, login and the current user
type AuthHandler struct {
	service *logicv1.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *logicv1.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.SignupRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	res, err := h.service.Signup(ctx, req)
	if err != nil {
		writeError(c, span, logger, "Failed to sign up", err)
		return
	}

	logger.Info("User signed up", zap.String("user_id", res.User.ID), zap.String("account_type", res.User.AccountType))
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	var req domain.LoginRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	session, err := h.service.Login(ctx, req)
	if err != nil {
		writeError(c, span, logger, "Failed to log in", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		logger.Warn("Me: no user_id in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := h.service.Me(ctx, userID)
	if err != nil {
		writeError(c, span, logger, "Failed to get current user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
