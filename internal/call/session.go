package call

import (
	"encoding/json"
	"time"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// Status is the lifecycle state of a call session
type Status string

// Session statuses. Terminal teardown always passes through StatusEnded
// before the engine returns to StatusIdle.
const (
	StatusIdle       Status = "idle"
	StatusCalling    Status = "calling"
	StatusIncoming   Status = "incoming"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusEnded      Status = "ended"
)

// session holds all state for one call attempt. It exists only between a
// call's initiation and its teardown; every field is owned by the engine
// and guarded by the engine's mutex.
type session struct {
	callID         string
	mode           domain.CallMode
	direction      domain.CallDirection
	status         Status
	remoteUserID   string
	remoteProfile  *domain.UserSummary
	conversationID string
	tempID         string

	startedAt   time.Time
	connectedAt time.Time

	// callee side: the remote offer held until the user accepts
	pendingOffer json.RawMessage

	// candidates that arrived before the remote description was applied,
	// flushed in arrival order once it is
	pendingCandidates []json.RawMessage

	peer  PeerLink
	media MediaStream

	// generation ties async continuations (media acquire, offer build,
	// timers, peer callbacks) to this session; a continuation whose
	// generation no longer matches the engine's is discarded
	gen uint64

	// set when the local user accepted an incoming call; distinguishes
	// missed from failed-after-answer outcomes
	accepted bool

	finalized bool
}

// wasConnected reports whether the session ever reached connected
func (s *session) wasConnected() bool {
	return !s.connectedAt.IsZero()
}

// defaultOutcome applies the teardown policy when no explicit outcome is
// given: connected sessions completed, unanswered incoming calls missed,
// unanswered outgoing calls cancelled
func (s *session) defaultOutcome() domain.CallLogStatus {
	if s.wasConnected() {
		return domain.CallStatusCompleted
	}
	if s.direction == domain.CallDirectionIncoming && !s.accepted {
		return domain.CallStatusMissed
	}
	return domain.CallStatusCancelled
}

// duration is the elapsed connected time in milliseconds, zero if the
// session never connected
func (s *session) duration(now time.Time) int64 {
	if !s.wasConnected() {
		return 0
	}
	return now.Sub(s.connectedAt).Milliseconds()
}

// Snapshot is a read-only copy of the engine's visible state
type Snapshot struct {
	Status         Status
	CallID         string
	Mode           domain.CallMode
	Direction      domain.CallDirection
	RemoteUserID   string
	RemoteProfile  *domain.UserSummary
	ConversationID string
	TempID         string
	StartedAt      time.Time
	ConnectedAt    time.Time
}
