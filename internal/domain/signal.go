package domain

import "encoding/json"

// WebSocket event names carried inside the Envelope
const (
	EventRegister          = "register"
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventTyping            = "typing"
	EventCallOffer         = "call:offer"
	EventCallAnswer        = "call:answer"
	EventCallICECandidate  = "call:ice-candidate"
	EventCallEnd           = "call:end"
	EventCallReject        = "call:reject"
	EventPresenceUpdate    = "presence:update"
	EventMessageNew        = "message:new"
	EventMessageRead       = "message:read"
)

// Envelope frames every event on the WebSocket transport
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RegisterPayload binds a user identity to the connection
type RegisterPayload struct {
	UserID string `json:"user_id"`
}

// ConversationRoomPayload joins or leaves a per-conversation room
type ConversationRoomPayload struct {
	ConversationID string `json:"conversation_id"`
}

// TypingPayload relays a typing indicator to a single user
type TypingPayload struct {
	To       string `json:"to,omitempty"`
	From     string `json:"from,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// CallSignal is the payload for every call:* event. The relay requires To,
// injects From, and forwards everything else untouched; the session machines
// on either end interpret the rest.
type CallSignal struct {
	To             string          `json:"to,omitempty"`
	From           string          `json:"from,omitempty"`
	CallID         string          `json:"call_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Mode           CallMode        `json:"mode,omitempty"`
	Offer          json.RawMessage `json:"offer,omitempty"`
	Answer         json.RawMessage `json:"answer,omitempty"`
	Candidate      json.RawMessage `json:"candidate,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Caller         *UserSummary    `json:"caller,omitempty"`
}

// PresenceUpdate carries the full set of online user IDs to every client
type PresenceUpdate struct {
	OnlineUsers []string `json:"online_users"`
}
