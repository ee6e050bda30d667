package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/service/user"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for user lookup and profiles
type Handler struct {
	userService *user.Service
}

// NewHandler creates a new user handler
func NewHandler(userService *user.Service) *Handler {
	return &Handler{userService: userService}
}

// Search finds users by name or username fragment
// GET /api/users/search?q=term
func (h *Handler) Search(c *gin.Context) {
	selfID := c.MustGet("user_id").(uuid.UUID)

	users, err := h.userService.Search(c.Request.Context(), selfID, c.Query("q"))
	if err != nil {
		response.InternalError(c, "search failed")
		return
	}

	response.Success(c, http.StatusOK, users)
}

// Get returns one user's public profile
// GET /api/users/:id
func (h *Handler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	u, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, http.StatusOK, u)
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Name      string  `json:"name" binding:"required"`
	AvatarURL *string `json:"avatar,omitempty"`
}

// UpdateProfile changes the authenticated user's display name and avatar
// PUT /api/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	selfID := c.MustGet("user_id").(uuid.UUID)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), selfID, &user.UpdateProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.InternalError(c, "failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, u)
}
