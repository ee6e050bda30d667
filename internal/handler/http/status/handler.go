package status

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/service/status"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for status posts
type Handler struct {
	statusService *status.Service
}

// NewHandler creates a new status handler
func NewHandler(statusService *status.Service) *Handler {
	return &Handler{statusService: statusService}
}

// Publish creates a status post
// POST /api/status
func (h *Handler) Publish(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req domain.StatusCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	st, err := h.statusService.Publish(c.Request.Context(), userID, &req)
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, st)
}

// List returns all non-expired status posts
// GET /api/status
func (h *Handler) List(c *gin.Context) {
	statuses, err := h.statusService.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list statuses")
		return
	}

	response.Success(c, http.StatusOK, statuses)
}

// Delete removes the user's own status post
// DELETE /api/status/:id
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid status id")
		return
	}

	if err := h.statusService.Delete(c.Request.Context(), statusID, userID); err != nil {
		response.NotFound(c, "status not found")
		return
	}

	response.Message(c, http.StatusOK, "status deleted")
}
