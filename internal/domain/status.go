package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status represents an ephemeral status post
// Maps to the status_posts table; posts expire after 24 hours
type Status struct {
	StatusID  uuid.UUID `json:"status_id" db:"status_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Text      *string   `json:"text,omitempty" db:"text"`
	MediaURL  *string   `json:"media,omitempty" db:"media_url"`
	MediaType *string   `json:"media_type,omitempty" db:"media_type"` // image, video
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// StatusCreate represents data to publish a status post
type StatusCreate struct {
	Text      *string `json:"text,omitempty"`
	MediaURL  *string `json:"media,omitempty"`
	MediaType *string `json:"media_type,omitempty"`
}

// StatusResponse is a status post with author display info
type StatusResponse struct {
	StatusID  uuid.UUID    `json:"status_id"`
	Author    *UserSummary `json:"author"`
	Text      *string      `json:"text,omitempty"`
	MediaURL  *string      `json:"media,omitempty"`
	MediaType *string      `json:"media_type,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}
