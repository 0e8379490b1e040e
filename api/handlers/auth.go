package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/database/queries"
	"github.com/OldStager01/healthcare-records/pkg/models"
	"github.com/OldStager01/healthcare-records/pkg/validation"
)

// UserStore is the part of queries.UserRepository the auth handlers use.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	HTTPOnly bool
}

type AuthHandler struct {
	users       UserStore
	authService *auth.Service
	publisher   *events.Publisher
	cookie      CookieConfig
	bcryptCost  int
}

func NewAuthHandler(users UserStore, authService *auth.Service, publisher *events.Publisher, cookie CookieConfig, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		users:       users,
		authService: authService,
		publisher:   publisher,
		cookie:      cookie,
		bcryptCost:  bcryptCost,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required" example:"drsmith"`
	Email           string `json:"email" binding:"required" example:"smith@hospital.com"`
	Password        string `json:"password" binding:"required" example:"Secret123"`
	ConfirmPassword string `json:"confirm_password" binding:"required" example:"Secret123"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in" example:"7200"`
	Username  string `json:"username" example:"admin"`
	IsAdmin   bool   `json:"is_admin"`
}

// Register godoc
// @Summary Register user
// @Description Create a staff account. Passwords need 8+ characters with upper, lower and a digit.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New account"
// @Success 201 {object} models.User "Account created"
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 409 {object} map[string]string "Username or email already registered"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}

	req.Username = validation.SanitizeInput(req.Username)
	req.Email = validation.SanitizeString(req.Email)

	if err := validation.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validation.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	exists, err := h.users.Exists(ctx, req.Username, req.Email)
	if err != nil {
		respondDBError(c, "check user exists", err)
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
		return
	}

	hash, err := auth.HashPasswordCost(req.Password, h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, queries.ErrDuplicateUser) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
			return
		}
		respondDBError(c, "create user", err)
		return
	}

	logger.WithUser(user.Username).Info("User registered")
	h.publisher.WithContext(c.Request.Context()).UserRegistered(user.Username, user.ID)

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Description Exchange credentials for a JWT. The token is also set as an HttpOnly cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Username = validation.SanitizeString(req.Username)

	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, queries.ErrUserNotFound) {
		respondDBError(c, "get user", err)
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.loginFailed(c, req.Username)
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	if err := h.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		logger.WithUser(user.Username).Warnf("Failed to update last login: %v", err)
	}

	maxAge := int(h.authService.Duration().Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, token, maxAge, h.cookie.Path, "", h.cookie.Secure, h.cookie.HTTPOnly)

	logger.WithUser(user.Username).Info("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: maxAge,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	})
}

func (h *AuthHandler) loginFailed(c *gin.Context, username string) {
	metrics.Get().IncAuthFailure("invalid_credentials")
	logger.WithFieldsCtx(c.Request.Context(), map[string]interface{}{
		"username": username,
		"ip":       c.ClientIP(),
	}).Warn("Failed login attempt")
	h.publisher.WithContext(c.Request.Context()).LoginFailed(username, c.ClientIP(), "invalid credentials")

	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, "", h.cookie.Secure, h.cookie.HTTPOnly)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 404 {object} map[string]string "User no longer exists"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	user, err := h.users.GetByID(ctx, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, queries.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		respondDBError(c, "get current user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}
