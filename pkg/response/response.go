package response

import (
	"github.com/gin-gonic/gin"
)

// Body is the JSON envelope every REST endpoint returns.
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful response with data
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Body{
		Success: true,
		Data:    data,
	})
}

// Message sends a successful response with a human-readable message only
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Body{
		Success: true,
		Message: message,
	})
}

// Error sends an error response
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Body{
		Success: false,
		Message: message,
	})
}

// ValidationError sends a validation error response (400)
func ValidationError(c *gin.Context, message string) {
	Error(c, 400, message)
}

// Unauthorized sends unauthorized error (401)
func Unauthorized(c *gin.Context, message string) {
	Error(c, 401, message)
}

// Forbidden sends forbidden error (403)
func Forbidden(c *gin.Context, message string) {
	Error(c, 403, message)
}

// NotFound sends not found error (404)
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// Conflict sends conflict error (409)
func Conflict(c *gin.Context, message string) {
	Error(c, 409, message)
}

// InternalError sends internal server error (500)
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}
