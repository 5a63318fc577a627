package handler

import (
	"errors"
	"log"
	"net/http"

	"visit_portal/internal/middleware"
	"visit_portal/internal/model"
	"visit_portal/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication and password-reset requests
type AuthHandler struct {
	service service.AuthService
	cookie  *middleware.SessionCookie
	devMode bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookie *middleware.SessionCookie, devMode bool) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie, devMode: devMode}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, cookieToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrPasswordTooShort), errors.Is(err, model.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during registration: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		}
		return
	}

	h.cookie.Set(c, cookieToken)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, cookieToken, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrAccountLocked):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during login: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		}
		return
	}

	h.cookie.Set(c, cookieToken)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout deletes the session and clears the cookie, even when the session
// lookup fails
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			log.Printf("Error during logout: %v", err)
		}
	}
	h.cookie.Clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the current session's user, or null when unauthenticated.
// An expired or dangling session clears the cookie as a side effect.
func (h *AuthHandler) Me(c *gin.Context) {
	token, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.service.GetSessionUser(c.Request.Context(), token)
	if err != nil {
		log.Printf("Error resolving session user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
		return
	}
	if user == nil {
		h.cookie.Clear(c)
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req model.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token, err := h.service.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not registered"})
			return
		}
		log.Printf("Error requesting password reset: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue reset token"})
		return
	}

	resp := gin.H{"ok": true}
	if h.devMode {
		// dev-only escape hatch when mail delivery is not set up
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req model.ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.service.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidResetToken), errors.Is(err, model.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error confirming password reset: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListUsers returns all registered users (admin only, hashes never serialized)
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// RegisterAuthRoutes registers auth and admin user routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
		authGroup.POST("/reset/request", h.RequestPasswordReset)
		authGroup.POST("/reset/confirm", h.ConfirmPasswordReset)
	}

	adminGroup := rg.Group("/admin")
	adminGroup.Use(authMW)
	adminGroup.Use(adminMW)
	{
		adminGroup.GET("/users", h.ListUsers)
	}
}
