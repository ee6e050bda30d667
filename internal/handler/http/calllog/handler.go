package calllog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/service/calllog"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for call history
type Handler struct {
	callLogService *calllog.Service
}

// NewHandler creates a new call log handler
func NewHandler(callLogService *calllog.Service) *Handler {
	return &Handler{callLogService: callLogService}
}

// Create records a finished call. The acting user plus the declared
// direction decide which side is caller and which is callee.
// POST /api/call-logs
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req domain.CallLogCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	log, err := h.callLogService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, log)
}

// List returns the user's recent call history, newest first
// GET /api/call-logs
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	logs, err := h.callLogService.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list call logs")
		return
	}

	response.Success(c, http.StatusOK, logs)
}
