package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/logger"
)

// Engine errors
var (
	ErrBusy     = errors.New("a call is already in progress")
	ErrBadState = errors.New("operation not valid in current call state")
	ErrClosed   = errors.New("call engine is closed")
)

// Config assembles an Engine's collaborators
type Config struct {
	// SelfID is the local user's identity as bound on the signaling transport
	SelfID string

	// SelfProfile is attached to outbound offers for callee display
	SelfProfile *domain.UserSummary

	Media    MediaSource
	NewPeer  PeerFactory
	Recorder *Recorder

	// RingTimeout bounds how long an outbound call stays in calling with no
	// answer before it is cancelled. Zero disables the timer.
	RingTimeout time.Duration

	// EndedDisplay is how long State reports ended after teardown before
	// settling on idle. Purely cosmetic, no protocol significance.
	EndedDisplay time.Duration
}

// Engine is the call session state machine. At most one non-terminal
// session exists at a time; every signaling event, user action, and async
// continuation funnels through the engine's mutex, and continuations carry
// a generation number so results from a torn-down session are discarded.
type Engine struct {
	selfID       string
	selfProfile  *domain.UserSummary
	media        MediaSource
	newPeer      PeerFactory
	recorder     *Recorder
	ringTimeout  time.Duration
	endedDisplay time.Duration

	mu           sync.Mutex
	gen          uint64
	sess         *session
	endedUntil   time.Time
	activeConv   string
	closed       bool

	outbound chan Signal
}

// NewEngine creates a call engine. Outbound signaling events appear on the
// Outbound channel; the transport layer is responsible for draining it.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		selfID:       cfg.SelfID,
		selfProfile:  cfg.SelfProfile,
		media:        cfg.Media,
		newPeer:      cfg.NewPeer,
		recorder:     cfg.Recorder,
		ringTimeout:  cfg.RingTimeout,
		endedDisplay: cfg.EndedDisplay,
		outbound:     make(chan Signal, 32),
	}
}

// Outbound returns the channel of signaling events the engine wants sent
func (e *Engine) Outbound() <-chan Signal {
	return e.outbound
}

// State returns a snapshot of the current session, or an idle/ended
// snapshot when none exists
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		snap := Snapshot{Status: StatusIdle}
		if time.Now().Before(e.endedUntil) {
			snap.Status = StatusEnded
		}
		return snap
	}

	s := e.sess
	return Snapshot{
		Status:         s.status,
		CallID:         s.callID,
		Mode:           s.mode,
		Direction:      s.direction,
		RemoteUserID:   s.remoteUserID,
		RemoteProfile:  s.remoteProfile,
		ConversationID: s.conversationID,
		TempID:         s.tempID,
		StartedAt:      s.startedAt,
		ConnectedAt:    s.connectedAt,
	}
}

// PlaceCall starts an outbound call. It acquires local media, builds an
// offer, and emits call:offer. Any failure along the way tears the
// session down and is returned to the caller.
func (e *Engine) PlaceCall(ctx context.Context, remoteUserID string, remoteProfile *domain.UserSummary, mode domain.CallMode, conversationID string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.sess != nil {
		e.mu.Unlock()
		return ErrBusy
	}

	e.gen++
	gen := e.gen
	now := time.Now()
	s := &session{
		callID:         fmt.Sprintf("%d-%s", now.UnixMilli(), e.selfID),
		mode:           mode,
		direction:      domain.CallDirectionOutgoing,
		status:         StatusCalling,
		remoteUserID:   remoteUserID,
		remoteProfile:  remoteProfile,
		conversationID: conversationID,
		tempID:         uuid.New().String(),
		startedAt:      now,
		gen:            gen,
	}
	e.sess = s
	e.recorder.Begin(s.tempID, e.provisional(s, domain.CallStatusDialing))
	e.mu.Unlock()

	stream, err := e.media.Acquire(ctx, mode)
	if err != nil {
		e.abort(gen, fmt.Errorf("media acquisition failed: %w", err))
		return fmt.Errorf("failed to acquire media: %w", err)
	}

	peer, err := e.attachPeer(gen, stream)
	if err != nil {
		stream.StopTracks()
		e.abort(gen, err)
		return err
	}

	offer, err := peer.CreateOffer(ctx)
	if err != nil {
		e.abort(gen, fmt.Errorf("offer creation failed: %w", err))
		return fmt.Errorf("failed to create offer: %w", err)
	}

	e.mu.Lock()
	if !e.genMatches(gen) {
		e.mu.Unlock()
		return nil
	}
	e.emitLocked(Signal{
		Event: domain.EventCallOffer,
		Payload: domain.CallSignal{
			To:             remoteUserID,
			CallID:         s.callID,
			ConversationID: conversationID,
			Mode:           mode,
			Offer:          offer,
			Caller:         e.selfProfile,
		},
	})
	if e.ringTimeout > 0 {
		time.AfterFunc(e.ringTimeout, func() { e.ringExpired(gen) })
	}
	e.mu.Unlock()

	return nil
}

// HandleSignal feeds one inbound signaling event into the state machine.
// Events carrying a callId that does not match the active session are
// ignored, except that an offer arriving while another call is live gets
// an automatic busy rejection.
func (e *Engine) HandleSignal(event string, sig domain.CallSignal) {
	e.mu.Lock()

	if e.sess != nil && sig.CallID != "" && sig.CallID != e.sess.callID {
		if event == domain.EventCallOffer {
			e.emitLocked(Signal{
				Event: domain.EventCallReject,
				Payload: domain.CallSignal{
					To:             sig.From,
					CallID:         sig.CallID,
					ConversationID: sig.ConversationID,
					Reason:         "busy",
				},
			})
		} else {
			logger.Debug("ignoring stale signal",
				zap.String("event", event),
				zap.String("call_id", sig.CallID),
				zap.String("active_call_id", e.sess.callID))
		}
		e.mu.Unlock()
		return
	}

	switch event {
	case domain.EventCallOffer:
		e.handleOfferLocked(sig)
		e.mu.Unlock()

	case domain.EventCallAnswer:
		e.handleAnswer(sig) // unlocks internally

	case domain.EventCallICECandidate:
		e.handleCandidateLocked(sig)
		e.mu.Unlock()

	case domain.EventCallEnd:
		if e.sess != nil {
			e.teardownLocked(e.sess.defaultOutcome(), false)
		}
		e.mu.Unlock()

	case domain.EventCallReject:
		if e.sess != nil {
			e.teardownLocked(domain.CallStatusRejected, false)
		}
		e.mu.Unlock()

	default:
		e.mu.Unlock()
	}
}

// handleOfferLocked creates an incoming session from a remote offer.
// The offer is buffered until the user accepts.
func (e *Engine) handleOfferLocked(sig domain.CallSignal) {
	if e.sess != nil {
		// duplicate offer for the active call, nothing to do
		return
	}
	if e.closed || sig.From == "" || sig.CallID == "" {
		return
	}

	e.gen++
	mode := sig.Mode
	if mode == "" {
		mode = domain.CallModeVideo
	}
	s := &session{
		callID:         sig.CallID,
		mode:           mode,
		direction:      domain.CallDirectionIncoming,
		status:         StatusIncoming,
		remoteUserID:   sig.From,
		remoteProfile:  sig.Caller,
		conversationID: sig.ConversationID,
		tempID:         uuid.New().String(),
		startedAt:      time.Now(),
		pendingOffer:   sig.Offer,
		gen:            e.gen,
	}
	e.sess = s
	e.recorder.Begin(s.tempID, e.provisional(s, domain.CallStatusRinging))
}

// handleAnswer applies the callee's answer on the caller side and moves
// the session to connecting. Called with the mutex held; releases it.
func (e *Engine) handleAnswer(sig domain.CallSignal) {
	s := e.sess
	if s == nil || s.status != StatusCalling || s.peer == nil {
		e.mu.Unlock()
		return
	}
	gen := s.gen
	peer := s.peer
	answer := sig.Answer
	e.mu.Unlock()

	if err := peer.SetRemoteDescription(answer); err != nil {
		logger.Error("failed to apply remote answer", zap.Error(err), zap.String("call_id", sig.CallID))
		e.abort(gen, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.genMatches(gen) {
		return
	}
	e.sess.status = StatusConnecting
	e.flushCandidatesLocked()
}

// handleCandidateLocked buffers or applies one remote ICE candidate.
// Candidates may legitimately arrive before the remote description;
// those are held in arrival order and flushed once it is applied.
func (e *Engine) handleCandidateLocked(sig domain.CallSignal) {
	s := e.sess
	if s == nil || len(sig.Candidate) == 0 {
		return
	}

	if s.peer == nil || !s.peer.HasRemoteDescription() {
		s.pendingCandidates = append(s.pendingCandidates, sig.Candidate)
		return
	}

	if err := s.peer.AddICECandidate(sig.Candidate); err != nil {
		logger.Warn("failed to add ice candidate", zap.Error(err), zap.String("call_id", s.callID))
	}
}

// flushCandidatesLocked drains the pending candidate buffer in order.
// Add failures are logged and skipped, a missed candidate degrades
// connectivity but not correctness.
func (e *Engine) flushCandidatesLocked() {
	s := e.sess
	if s == nil || s.peer == nil {
		return
	}
	for _, c := range s.pendingCandidates {
		if err := s.peer.AddICECandidate(c); err != nil {
			logger.Warn("failed to add buffered ice candidate", zap.Error(err), zap.String("call_id", s.callID))
		}
	}
	s.pendingCandidates = nil
}

// Accept answers the current incoming call: acquires local media, applies
// the buffered offer, and emits call:answer
func (e *Engine) Accept(ctx context.Context) error {
	e.mu.Lock()
	s := e.sess
	if s == nil || s.status != StatusIncoming {
		e.mu.Unlock()
		return ErrBadState
	}
	s.accepted = true
	gen := s.gen
	mode := s.mode
	offer := s.pendingOffer
	remote := s.remoteUserID
	callID := s.callID
	convID := s.conversationID
	e.mu.Unlock()

	stream, err := e.media.Acquire(ctx, mode)
	if err != nil {
		e.abort(gen, fmt.Errorf("media acquisition failed: %w", err))
		return fmt.Errorf("failed to acquire media: %w", err)
	}

	peer, err := e.attachPeer(gen, stream)
	if err != nil {
		stream.StopTracks()
		e.abort(gen, err)
		return err
	}

	if err := peer.SetRemoteDescription(offer); err != nil {
		e.abort(gen, fmt.Errorf("applying remote offer failed: %w", err))
		return fmt.Errorf("failed to apply remote offer: %w", err)
	}

	answer, err := peer.CreateAnswer(ctx)
	if err != nil {
		e.abort(gen, fmt.Errorf("answer creation failed: %w", err))
		return fmt.Errorf("failed to create answer: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.genMatches(gen) {
		return nil
	}
	e.sess.status = StatusConnecting
	e.sess.pendingOffer = nil
	e.flushCandidatesLocked()
	e.emitLocked(Signal{
		Event: domain.EventCallAnswer,
		Payload: domain.CallSignal{
			To:             remote,
			CallID:         callID,
			ConversationID: convID,
			Answer:         answer,
		},
	})

	return nil
}

// Reject declines the current incoming call and notifies the caller
func (e *Engine) Reject() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sess
	if s == nil || s.status != StatusIncoming {
		return ErrBadState
	}

	e.emitLocked(Signal{
		Event: domain.EventCallReject,
		Payload: domain.CallSignal{
			To:             s.remoteUserID,
			CallID:         s.callID,
			ConversationID: s.conversationID,
			Reason:         "declined",
		},
	})
	e.teardownLocked(domain.CallStatusRejected, false)
	return nil
}

// Hangup ends the current session from the local side. Notifies the
// remote peer when its identity is known. Safe to call with no active
// session.
func (e *Engine) Hangup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hangupLocked()
}

func (e *Engine) hangupLocked() {
	s := e.sess
	if s == nil {
		return
	}

	outcome := domain.CallStatusCancelled
	if s.wasConnected() {
		outcome = domain.CallStatusCompleted
	}
	e.teardownLocked(outcome, true)
}

// SetActiveConversation records which conversation the user is viewing.
// Navigating away from the conversation a call belongs to ends the call,
// same path as an explicit hangup.
func (e *Engine) SetActiveConversation(conversationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.activeConv = conversationID
	s := e.sess
	if s != nil && s.conversationID != "" && s.conversationID != conversationID {
		e.hangupLocked()
	}
}

// Close hangs up any active session and shuts the engine down
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.hangupLocked()
	e.closed = true
	close(e.outbound)
}

// attachPeer builds a PeerLink over freshly acquired media and wires its
// callbacks to the engine, storing both on the session if it is still the
// current one
func (e *Engine) attachPeer(gen uint64, stream MediaStream) (PeerLink, error) {
	peer, err := e.newPeer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	e.mu.Lock()
	if !e.genMatches(gen) {
		e.mu.Unlock()
		stream.StopTracks()
		_ = peer.Close()
		return nil, ErrBadState
	}
	s := e.sess
	s.peer = peer
	s.media = stream
	remote := s.remoteUserID
	callID := s.callID
	convID := s.conversationID
	e.mu.Unlock()

	peer.OnICECandidate(func(candidate json.RawMessage) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.genMatches(gen) {
			return
		}
		e.emitLocked(Signal{
			Event: domain.EventCallICECandidate,
			Payload: domain.CallSignal{
				To:             remote,
				CallID:         callID,
				ConversationID: convID,
				Candidate:      candidate,
			},
		})
	})

	peer.OnStateChange(func(state PeerConnState) {
		e.peerStateChanged(gen, state)
	})

	return peer, nil
}

// peerStateChanged reacts to transport state transitions: connected marks
// the session live, failure and closure tear it down
func (e *Engine) peerStateChanged(gen uint64, state PeerConnState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.genMatches(gen) {
		return
	}
	s := e.sess

	switch state {
	case PeerStateConnected:
		if s.connectedAt.IsZero() {
			s.connectedAt = time.Now()
		}
		s.status = StatusConnected
		e.recorder.MarkOngoing(s.tempID)

	case PeerStateFailed:
		logger.Error("peer connection failed", zap.String("call_id", s.callID))
		e.teardownLocked(s.defaultOutcome(), false)

	case PeerStateDisconnected, PeerStateClosed:
		e.teardownLocked(s.defaultOutcome(), false)
	}
}

// ringExpired cancels an outbound call that was never answered
func (e *Engine) ringExpired(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.genMatches(gen) {
		return
	}
	if e.sess.status != StatusCalling {
		return
	}
	logger.Info("call ring timeout", zap.String("call_id", e.sess.callID))
	e.teardownLocked(domain.CallStatusCancelled, true)
}

// abort tears down after a failed async step, if the session that started
// the step is still current
func (e *Engine) abort(gen uint64, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.genMatches(gen) {
		return
	}
	logger.Warn("call aborted", zap.Error(cause), zap.String("call_id", e.sess.callID))
	e.teardownLocked(e.sess.defaultOutcome(), true)
}

// genMatches reports whether gen identifies the current session
func (e *Engine) genMatches(gen uint64) bool {
	return e.sess != nil && e.sess.gen == gen
}

// teardownLocked releases every session resource, finalizes the call log
// exactly once, and returns the engine to idle. Idempotent and safe to
// invoke from any state.
func (e *Engine) teardownLocked(outcome domain.CallLogStatus, notifyRemote bool) {
	s := e.sess
	if s == nil {
		return
	}

	if notifyRemote && s.remoteUserID != "" {
		e.emitLocked(Signal{
			Event: domain.EventCallEnd,
			Payload: domain.CallSignal{
				To:             s.remoteUserID,
				CallID:         s.callID,
				ConversationID: s.conversationID,
			},
		})
	}

	if !s.finalized && s.callID != "" {
		s.finalized = true
		now := time.Now()
		final := e.provisional(s, outcome)
		final.EndedAt = &now
		final.DurationMillis = s.duration(now)
		// finalize off the lock; a slow or failed persist must not stall teardown
		go e.recorder.Finalize(context.Background(), s.tempID, final)
	}

	if s.media != nil {
		s.media.StopTracks()
		s.media = nil
	}
	if s.peer != nil {
		if err := s.peer.Close(); err != nil {
			logger.Debug("peer close error", zap.Error(err))
		}
		s.peer = nil
	}
	s.pendingOffer = nil
	s.pendingCandidates = nil
	s.status = StatusEnded

	e.gen++
	e.sess = nil
	if e.endedDisplay > 0 {
		e.endedUntil = time.Now().Add(e.endedDisplay)
	}
}

// provisional builds a call-log payload from session state
func (e *Engine) provisional(s *session, status domain.CallLogStatus) *domain.CallLogCreate {
	otherID, err := uuid.Parse(s.remoteUserID)
	if err != nil {
		otherID = uuid.Nil
	}
	var convID *uuid.UUID
	if id, err := uuid.Parse(s.conversationID); err == nil {
		convID = &id
	}
	return &domain.CallLogCreate{
		OtherUserID:    otherID,
		ConversationID: convID,
		Mode:           s.mode,
		Direction:      s.direction,
		Status:         status,
		StartedAt:      s.startedAt,
		TempID:         s.tempID,
	}
}

// emitLocked hands one signal to the transport without blocking. A full
// outbound buffer drops the signal, the transport is expected to drain
// faster than a human can generate call events.
func (e *Engine) emitLocked(sig Signal) {
	if e.closed {
		return
	}
	select {
	case e.outbound <- sig:
	default:
		logger.Warn("outbound signal buffer full, dropping",
			zap.String("event", sig.Event),
			zap.String("call_id", sig.Payload.CallID))
	}
}
