package message

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/service/chat"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for messages
type Handler struct {
	chatService *chat.Service
}

// NewHandler creates a new message handler
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{chatService: chatService}
}

// Send stores a message and fans it out over WebSocket
// POST /api/messages
func (h *Handler) Send(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req domain.MessageCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNotMember):
			response.Forbidden(c, "not a member of this conversation")
		case errors.Is(err, chat.ErrEmptyMessage):
			response.ValidationError(c, err.Error())
		default:
			response.InternalError(c, "failed to send message")
		}
		return
	}

	response.Success(c, http.StatusCreated, msg)
}

// History returns a page of conversation history, newest first
// GET /api/messages/:conversationId?limit=20&cursor=...
func (h *Handler) History(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	convID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		response.ValidationError(c, "invalid conversation id")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.chatService.History(c.Request.Context(), userID, &chat.HistoryInput{
		ConversationID: convID,
		Limit:          limit,
		Cursor:         c.Query("cursor"),
	})
	if err != nil {
		if errors.Is(err, chat.ErrNotMember) {
			response.Forbidden(c, "not a member of this conversation")
			return
		}
		response.InternalError(c, "failed to fetch messages")
		return
	}

	response.Success(c, http.StatusOK, page)
}

// MarkReadRequest identifies the messages being read
type MarkReadRequest struct {
	ConversationID uuid.UUID   `json:"conversation_id" binding:"required"`
	MessageIDs     []uuid.UUID `json:"message_ids" binding:"required"`
}

// MarkRead flags messages as read and notifies the conversation
// POST /api/messages/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), userID, req.ConversationID, req.MessageIDs); err != nil {
		if errors.Is(err, chat.ErrNotMember) {
			response.Forbidden(c, "not a member of this conversation")
			return
		}
		response.InternalError(c, "failed to mark messages read")
		return
	}

	response.Message(c, http.StatusOK, "messages marked read")
}
