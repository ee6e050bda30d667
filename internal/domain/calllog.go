package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallMode distinguishes voice and video calls
type CallMode string

// Call modes
const (
	CallModeVoice CallMode = "voice"
	CallModeVideo CallMode = "video"
)

// CallDirection is fixed at session creation and never changes
type CallDirection string

// Call directions
const (
	CallDirectionOutgoing CallDirection = "outgoing"
	CallDirectionIncoming CallDirection = "incoming"
)

// CallLogStatus is the final (or provisional) outcome of a call attempt
type CallLogStatus string

// Call log statuses
const (
	CallStatusDialing   CallLogStatus = "dialing"
	CallStatusRinging   CallLogStatus = "ringing"
	CallStatusOngoing   CallLogStatus = "ongoing"
	CallStatusCompleted CallLogStatus = "completed"
	CallStatusMissed    CallLogStatus = "missed"
	CallStatusRejected  CallLogStatus = "rejected"
	CallStatusCancelled CallLogStatus = "cancelled"
)

// CallLog represents a durable call history record
// Maps to the call_logs table
type CallLog struct {
	CallLogID      uuid.UUID     `json:"call_log_id" db:"call_log_id"`
	CallerID       uuid.UUID     `json:"caller_id" db:"caller_id"`
	CalleeID       uuid.UUID     `json:"callee_id" db:"callee_id"`
	ConversationID *uuid.UUID    `json:"conversation_id,omitempty" db:"conversation_id"`
	Mode           CallMode      `json:"mode" db:"mode"`
	Direction      CallDirection `json:"direction" db:"direction"`
	Status         CallLogStatus `json:"status" db:"status"`
	StartedAt      time.Time     `json:"started_at" db:"started_at"`
	EndedAt        *time.Time    `json:"ended_at,omitempty" db:"ended_at"`
	DurationMillis int64         `json:"duration" db:"duration_millis"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// CallLogCreate represents the finalize request sent when a session terminates.
// OtherUserID is resolved against the authenticated actor and Direction to
// assign CallerID/CalleeID; TempID is echoed back for client-side reconciliation
// but never stored.
type CallLogCreate struct {
	OtherUserID    uuid.UUID     `json:"other_user_id" binding:"required"`
	ConversationID *uuid.UUID    `json:"conversation_id,omitempty"`
	Mode           CallMode      `json:"mode"`
	Direction      CallDirection `json:"direction"`
	Status         CallLogStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	EndedAt        *time.Time    `json:"ended_at,omitempty"`
	DurationMillis int64         `json:"duration"`
	TempID         string        `json:"temp_id,omitempty"`
}

// CallLogResponse is a call record with participant display info populated
type CallLogResponse struct {
	CallLogID      uuid.UUID     `json:"call_log_id"`
	Caller         *UserSummary  `json:"caller"`
	Callee         *UserSummary  `json:"callee"`
	ConversationID *uuid.UUID    `json:"conversation_id,omitempty"`
	Mode           CallMode      `json:"mode"`
	Direction      CallDirection `json:"direction"`
	Status         CallLogStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	EndedAt        *time.Time    `json:"ended_at,omitempty"`
	DurationMillis int64         `json:"duration"`
	TempID         string        `json:"temp_id,omitempty"`
}
