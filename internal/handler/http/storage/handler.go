package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/service/storage"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// Handler handles HTTP requests for attachment storage
type Handler struct {
	storageService *storage.Service
}

// NewHandler creates a new storage handler
func NewHandler(storageService *storage.Service) *Handler {
	return &Handler{storageService: storageService}
}

// UploadURLRequest names the file being uploaded
type UploadURLRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

// UploadURL hands out a presigned PUT URL for a direct upload
// POST /api/storage/upload-url
func (h *Handler) UploadURL(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ticket, err := h.storageService.GenerateUploadURL(c.Request.Context(), userID, req.FileName)
	if err != nil {
		response.InternalError(c, "failed to create upload url")
		return
	}

	response.Success(c, http.StatusOK, ticket)
}

// DownloadURL hands out a presigned GET URL for a stored object
// GET /api/storage/download-url?key=...
func (h *Handler) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.ValidationError(c, "key is required")
		return
	}

	url, err := h.storageService.GenerateDownloadURL(c.Request.Context(), key)
	if err != nil {
		response.InternalError(c, "failed to create download url")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"download_url": url})
}
