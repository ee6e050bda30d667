package conversation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/service/conversation"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for conversations
type Handler struct {
	convService *conversation.Service
}

// NewHandler creates a new conversation handler
func NewHandler(convService *conversation.Service) *Handler {
	return &Handler{convService: convService}
}

// Create starts a conversation
// POST /api/conversations
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req domain.ConversationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	conv, err := h.convService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, conv)
}

// List returns the user's conversations, most recently active first
// GET /api/conversations
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	convs, err := h.convService.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list conversations")
		return
	}

	response.Success(c, http.StatusOK, convs)
}

// Get returns one conversation
// GET /api/conversations/:id
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid conversation id")
		return
	}

	conv, err := h.convService.Get(c.Request.Context(), convID, userID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotMember) {
			response.Forbidden(c, "not a member of this conversation")
			return
		}
		response.NotFound(c, "conversation not found")
		return
	}

	response.Success(c, http.StatusOK, conv)
}

// Delete removes a conversation
// DELETE /api/conversations/:id
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid conversation id")
		return
	}

	if err := h.convService.Delete(c.Request.Context(), convID, userID); err != nil {
		if errors.Is(err, conversation.ErrNotMember) {
			response.Forbidden(c, "not a member of this conversation")
			return
		}
		response.InternalError(c, "failed to delete conversation")
		return
	}

	response.Message(c, http.StatusOK, "conversation deleted")
}
