// Package call implements the client-side call session engine: placing,
// receiving, and tearing down WebRTC calls over the signaling transport.
// It is deliberately standalone. Coupling to media and transport happens
// only through the PeerLink, MediaSource, and Signal surfaces, so the
// engine can be driven by synthetic event sequences in tests.
package call

import (
	"context"
	"encoding/json"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// PeerConnState mirrors the connection lifecycle of the underlying
// peer transport
type PeerConnState string

// Peer connection states
const (
	PeerStateNew          PeerConnState = "new"
	PeerStateConnecting   PeerConnState = "connecting"
	PeerStateConnected    PeerConnState = "connected"
	PeerStateDisconnected PeerConnState = "disconnected"
	PeerStateFailed       PeerConnState = "failed"
	PeerStateClosed       PeerConnState = "closed"
)

// PeerLink is the session's view of a peer media connection.
// Implemented for production by pionpeer; tests supply fakes.
type PeerLink interface {
	// CreateOffer builds a local offer and applies it as the local description
	CreateOffer(ctx context.Context) (json.RawMessage, error)

	// CreateAnswer builds a local answer and applies it as the local description
	CreateAnswer(ctx context.Context) (json.RawMessage, error)

	// SetRemoteDescription applies the remote offer or answer
	SetRemoteDescription(desc json.RawMessage) error

	// HasRemoteDescription reports whether a remote description has been applied
	HasRemoteDescription() bool

	// AddICECandidate feeds one remote candidate to the transport
	AddICECandidate(candidate json.RawMessage) error

	// OnICECandidate registers the callback fired for each locally gathered
	// candidate. Must be set before CreateOffer or CreateAnswer.
	OnICECandidate(fn func(candidate json.RawMessage))

	// OnStateChange registers the callback fired on transport state transitions
	OnStateChange(fn func(state PeerConnState))

	// Close tears the transport down. Idempotent.
	Close() error
}

// PeerFactory creates a fresh PeerLink with local media already attached
type PeerFactory func(media MediaStream) (PeerLink, error)

// MediaStream is a handle on acquired local media
type MediaStream interface {
	// StopTracks releases every capture device held by the stream. Idempotent.
	StopTracks()
}

// MediaSource acquires local media for a call. Acquisition may be slow or
// fail outright (device busy, permission denied); the engine treats any
// error as fatal to the attempted session.
type MediaSource interface {
	Acquire(ctx context.Context, mode domain.CallMode) (MediaStream, error)
}

// Signal is one outbound signaling event emitted by the engine for the
// transport layer to deliver
type Signal struct {
	Event   string
	Payload domain.CallSignal
}
