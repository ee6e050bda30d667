package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/service/auth"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for authentication
type Handler struct {
	authService *auth.Service
}

// NewHandler creates a new auth handler
func NewHandler(authService *auth.Service) *Handler {
	return &Handler{authService: authService}
}

// Register handles user registration
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req domain.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	out, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrEmailTaken):
			response.Conflict(c, err.Error())
		default:
			response.ValidationError(c, err.Error())
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":  out.User,
		"token": out.Token,
	})
}

// Login handles user login
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req domain.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	out, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		response.InternalError(c, "login failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":  out.User,
		"token": out.Token,
	})
}

// Logout revokes the current session token
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	response.Message(c, http.StatusOK, "logged out")
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, http.StatusOK, user)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
