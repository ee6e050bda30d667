package call

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// Fakes

type fakeStream struct {
	mu    sync.Mutex
	stops int
}

func (s *fakeStream) StopTracks() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *fakeStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type fakeSource struct {
	err     error
	streams []*fakeStream
}

func (f *fakeSource) Acquire(ctx context.Context, mode domain.CallMode) (MediaStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeStream{}
	f.streams = append(f.streams, s)
	return s, nil
}

type fakePeer struct {
	mu         sync.Mutex
	remoteSet  bool
	remoteDesc json.RawMessage
	added      []json.RawMessage
	closes     int

	offerErr  error
	answerErr error
	remoteErr error

	onICE   func(json.RawMessage)
	onState func(PeerConnState)
}

func (p *fakePeer) CreateOffer(ctx context.Context) (json.RawMessage, error) {
	if p.offerErr != nil {
		return nil, p.offerErr
	}
	return json.RawMessage(`{"type":"offer","sdp":"v=0"}`), nil
}

func (p *fakePeer) CreateAnswer(ctx context.Context) (json.RawMessage, error) {
	if p.answerErr != nil {
		return nil, p.answerErr
	}
	return json.RawMessage(`{"type":"answer","sdp":"v=0"}`), nil
}

func (p *fakePeer) SetRemoteDescription(desc json.RawMessage) error {
	if p.remoteErr != nil {
		return p.remoteErr
	}
	p.mu.Lock()
	p.remoteSet = true
	p.remoteDesc = desc
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) HasRemoteDescription() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remoteSet
}

func (p *fakePeer) AddICECandidate(candidate json.RawMessage) error {
	p.mu.Lock()
	p.added = append(p.added, candidate)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) addedCandidates() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]json.RawMessage, len(p.added))
	copy(out, p.added)
	return out
}

func (p *fakePeer) OnICECandidate(fn func(json.RawMessage)) { p.onICE = fn }
func (p *fakePeer) OnStateChange(fn func(PeerConnState))    { p.onState = fn }

func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

type fakeSink struct {
	mu      sync.Mutex
	err     error
	created []*domain.CallLogCreate
}

func (f *fakeSink) Create(ctx context.Context, entry *domain.CallLogCreate) (*domain.CallLogResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, entry)
	return &domain.CallLogResponse{
		Mode:      entry.Mode,
		Direction: entry.Direction,
		Status:    entry.Status,
		StartedAt: entry.StartedAt,
		EndedAt:   entry.EndedAt,
	}, nil
}

func (f *fakeSink) createdRecords() []*domain.CallLogCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.CallLogCreate, len(f.created))
	copy(out, f.created)
	return out
}

// harness bundles an engine with its fakes
type harness struct {
	engine *Engine
	source *fakeSource
	sink   *fakeSink
	peers  []*fakePeer
}

func newHarness(t *testing.T, selfID string) *harness {
	t.Helper()
	h := &harness{
		source: &fakeSource{},
		sink:   &fakeSink{},
	}
	h.engine = NewEngine(Config{
		SelfID:      selfID,
		SelfProfile: &domain.UserSummary{Username: selfID},
		Media:       h.source,
		NewPeer: func(media MediaStream) (PeerLink, error) {
			p := &fakePeer{}
			h.peers = append(h.peers, p)
			return p, nil
		},
		Recorder: NewRecorder(h.sink),
	})
	return h
}

// drainOne pulls the next outbound signal or fails the test
func (h *harness) drainOne(t *testing.T) Signal {
	t.Helper()
	select {
	case sig := <-h.engine.Outbound():
		return sig
	case <-time.After(time.Second):
		t.Fatal("no outbound signal")
		return Signal{}
	}
}

func (h *harness) lastPeer() *fakePeer {
	return h.peers[len(h.peers)-1]
}

// waitFinalized blocks until the sink has seen n records
func (h *harness) waitFinalized(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.sink.createdRecords()) == n
	}, time.Second, 5*time.Millisecond)
}

func TestPlaceCallEmitsOffer(t *testing.T) {
	h := newHarness(t, "alice")

	err := h.engine.PlaceCall(context.Background(), "bob", &domain.UserSummary{Username: "bob"}, domain.CallModeVoice, "conv-1")
	require.NoError(t, err)

	sig := h.drainOne(t)
	assert.Equal(t, domain.EventCallOffer, sig.Event)
	assert.Equal(t, "bob", sig.Payload.To)
	assert.Equal(t, domain.CallModeVoice, sig.Payload.Mode)
	assert.NotEmpty(t, sig.Payload.CallID)
	assert.Equal(t, "conv-1", sig.Payload.ConversationID)
	require.NotNil(t, sig.Payload.Caller)
	assert.Equal(t, "alice", sig.Payload.Caller.Username)

	snap := h.engine.State()
	assert.Equal(t, StatusCalling, snap.Status)
	assert.Equal(t, domain.CallDirectionOutgoing, snap.Direction)

	entries := h.engine.recorder.List()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CallStatusDialing, entries[0].Provisional.Status)
}

func TestSecondPlaceCallRejected(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	err := h.engine.PlaceCall(context.Background(), "carol", nil, domain.CallModeVoice, "")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestHappyPathVoiceCall(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, "conv-1"))
	offer := h.drainOne(t)
	callID := offer.Payload.CallID

	h.engine.HandleSignal(domain.EventCallAnswer, domain.CallSignal{
		From:   "bob",
		CallID: callID,
		Answer: json.RawMessage(`{"type":"answer","sdp":"v=0"}`),
	})
	assert.Equal(t, StatusConnecting, h.engine.State().Status)
	assert.True(t, h.lastPeer().HasRemoteDescription())

	h.lastPeer().onState(PeerStateConnected)
	snap := h.engine.State()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.False(t, snap.ConnectedAt.IsZero())

	time.Sleep(10 * time.Millisecond)
	h.engine.Hangup()

	end := h.drainOne(t)
	assert.Equal(t, domain.EventCallEnd, end.Event)
	assert.Equal(t, "bob", end.Payload.To)
	assert.Equal(t, callID, end.Payload.CallID)

	assert.Equal(t, StatusIdle, h.engine.State().Status)

	h.waitFinalized(t, 1)
	rec := h.sink.createdRecords()[0]
	assert.Equal(t, domain.CallStatusCompleted, rec.Status)
	assert.Greater(t, rec.DurationMillis, int64(0))
	require.NotNil(t, rec.EndedAt)
}

func TestBusyCalleeAutoRejects(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	offer := h.drainOne(t)
	before := h.engine.State()

	h.engine.HandleSignal(domain.EventCallOffer, domain.CallSignal{
		From:   "carol",
		CallID: "999-carol",
		Mode:   domain.CallModeVideo,
		Offer:  json.RawMessage(`{}`),
	})

	reject := h.drainOne(t)
	assert.Equal(t, domain.EventCallReject, reject.Event)
	assert.Equal(t, "carol", reject.Payload.To)
	assert.Equal(t, "999-carol", reject.Payload.CallID)
	assert.Equal(t, "busy", reject.Payload.Reason)

	after := h.engine.State()
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.CallID, after.CallID)
	assert.Equal(t, offer.Payload.CallID, after.CallID)
}

func TestCallerCancelsBeforeAnswer(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVideo, ""))
	h.drainOne(t) // offer

	h.engine.Hangup()
	end := h.drainOne(t)
	assert.Equal(t, domain.EventCallEnd, end.Event)

	h.waitFinalized(t, 1)
	rec := h.sink.createdRecords()[0]
	assert.Equal(t, domain.CallStatusCancelled, rec.Status)
	assert.Equal(t, int64(0), rec.DurationMillis)
}

func TestCalleeMissedOnRemoteEnd(t *testing.T) {
	h := newHarness(t, "bob")

	h.engine.HandleSignal(domain.EventCallOffer, domain.CallSignal{
		From:   "alice",
		CallID: "100-alice",
		Mode:   domain.CallModeVoice,
		Offer:  json.RawMessage(`{"type":"offer"}`),
	})
	assert.Equal(t, StatusIncoming, h.engine.State().Status)

	h.engine.HandleSignal(domain.EventCallEnd, domain.CallSignal{From: "alice", CallID: "100-alice"})
	assert.Equal(t, StatusIdle, h.engine.State().Status)

	h.waitFinalized(t, 1)
	assert.Equal(t, domain.CallStatusMissed, h.sink.createdRecords()[0].Status)
}

func TestCalleeDeclines(t *testing.T) {
	h := newHarness(t, "bob")

	h.engine.HandleSignal(domain.EventCallOffer, domain.CallSignal{
		From:   "alice",
		CallID: "100-alice",
		Mode:   domain.CallModeVoice,
		Offer:  json.RawMessage(`{"type":"offer"}`),
	})

	require.NoError(t, h.engine.Reject())

	reject := h.drainOne(t)
	assert.Equal(t, domain.EventCallReject, reject.Event)
	assert.Equal(t, "alice", reject.Payload.To)
	assert.Equal(t, "declined", reject.Payload.Reason)

	assert.Equal(t, StatusIdle, h.engine.State().Status)

	h.waitFinalized(t, 1)
	assert.Equal(t, domain.CallStatusRejected, h.sink.createdRecords()[0].Status)
}

func TestCallerSeesRejection(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	offer := h.drainOne(t)

	h.engine.HandleSignal(domain.EventCallReject, domain.CallSignal{
		From:   "bob",
		CallID: offer.Payload.CallID,
		Reason: "declined",
	})

	assert.Equal(t, StatusIdle, h.engine.State().Status)
	h.waitFinalized(t, 1)
	assert.Equal(t, domain.CallStatusRejected, h.sink.createdRecords()[0].Status)
}

func TestStaleEndIgnored(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	offer := h.drainOne(t)

	h.engine.HandleSignal(domain.EventCallEnd, domain.CallSignal{From: "bob", CallID: "other-call"})

	snap := h.engine.State()
	assert.Equal(t, StatusCalling, snap.Status)
	assert.Equal(t, offer.Payload.CallID, snap.CallID)
	assert.Empty(t, h.sink.createdRecords())
}

func TestICECandidatesBufferedUntilRemoteDescription(t *testing.T) {
	h := newHarness(t, "bob")

	h.engine.HandleSignal(domain.EventCallOffer, domain.CallSignal{
		From:   "alice",
		CallID: "100-alice",
		Mode:   domain.CallModeVoice,
		Offer:  json.RawMessage(`{"type":"offer"}`),
	})

	// candidates arrive before the user accepts, no peer exists yet
	var want []string
	for i := 0; i < 3; i++ {
		c := fmt.Sprintf(`{"candidate":"cand-%d"}`, i)
		want = append(want, c)
		h.engine.HandleSignal(domain.EventCallICECandidate, domain.CallSignal{
			From:      "alice",
			CallID:    "100-alice",
			Candidate: json.RawMessage(c),
		})
	}

	require.NoError(t, h.engine.Accept(context.Background()))
	h.drainOne(t) // answer

	added := h.lastPeer().addedCandidates()
	require.Len(t, added, 3)
	for i, c := range added {
		assert.JSONEq(t, want[i], string(c))
	}

	// after the remote description is set, candidates apply directly
	h.engine.HandleSignal(domain.EventCallICECandidate, domain.CallSignal{
		From:      "alice",
		CallID:    "100-alice",
		Candidate: json.RawMessage(`{"candidate":"late"}`),
	})
	assert.Len(t, h.lastPeer().addedCandidates(), 4)
}

func TestCallerBuffersCandidatesUntilAnswer(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	offer := h.drainOne(t)

	h.engine.HandleSignal(domain.EventCallICECandidate, domain.CallSignal{
		From:      "bob",
		CallID:    offer.Payload.CallID,
		Candidate: json.RawMessage(`{"candidate":"early"}`),
	})
	assert.Empty(t, h.lastPeer().addedCandidates())

	h.engine.HandleSignal(domain.EventCallAnswer, domain.CallSignal{
		From:   "bob",
		CallID: offer.Payload.CallID,
		Answer: json.RawMessage(`{"type":"answer"}`),
	})

	added := h.lastPeer().addedCandidates()
	require.Len(t, added, 1)
	assert.JSONEq(t, `{"candidate":"early"}`, string(added[0]))
}

func TestTeardownIdempotent(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	h.drainOne(t)
	peer := h.lastPeer()
	stream := h.source.streams[0]

	h.engine.Hangup()
	h.engine.Hangup()

	assert.Equal(t, StatusIdle, h.engine.State().Status)
	assert.Equal(t, 1, peer.closeCount())
	assert.Equal(t, 1, stream.stopCount())

	// exactly one durable record despite the double teardown
	h.waitFinalized(t, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, h.sink.createdRecords(), 1)
}

func TestPeerFailureTearsDown(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	h.drainOne(t)

	h.lastPeer().onState(PeerStateFailed)

	assert.Equal(t, StatusIdle, h.engine.State().Status)
	h.waitFinalized(t, 1)
	assert.Equal(t, domain.CallStatusCancelled, h.sink.createdRecords()[0].Status)
}

func TestMediaFailureAbortsPlaceCall(t *testing.T) {
	h := newHarness(t, "alice")
	h.source.err = fmt.Errorf("permission denied")

	err := h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVideo, "")
	require.Error(t, err)
	assert.Equal(t, StatusIdle, h.engine.State().Status)
}

func TestRingTimeoutCancels(t *testing.T) {
	h := newHarness(t, "alice")
	h.engine.ringTimeout = 20 * time.Millisecond

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	h.drainOne(t) // offer

	require.Eventually(t, func() bool {
		return h.engine.State().Status == StatusIdle
	}, time.Second, 5*time.Millisecond)

	end := h.drainOne(t)
	assert.Equal(t, domain.EventCallEnd, end.Event)

	h.waitFinalized(t, 1)
	assert.Equal(t, domain.CallStatusCancelled, h.sink.createdRecords()[0].Status)
}

func TestNavigatingAwayEndsCall(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, "conv-1"))
	h.drainOne(t)

	h.engine.SetActiveConversation("conv-2")

	assert.Equal(t, StatusIdle, h.engine.State().Status)
	end := h.drainOne(t)
	assert.Equal(t, domain.EventCallEnd, end.Event)
}

func TestLocalICEForwarded(t *testing.T) {
	h := newHarness(t, "alice")

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, "conv-1"))
	offer := h.drainOne(t)

	require.NotNil(t, h.lastPeer().onICE)
	h.lastPeer().onICE(json.RawMessage(`{"candidate":"local-0"}`))

	sig := h.drainOne(t)
	assert.Equal(t, domain.EventCallICECandidate, sig.Event)
	assert.Equal(t, "bob", sig.Payload.To)
	assert.Equal(t, offer.Payload.CallID, sig.Payload.CallID)
	assert.JSONEq(t, `{"candidate":"local-0"}`, string(sig.Payload.Candidate))
}

func TestEndedDisplayWindow(t *testing.T) {
	h := newHarness(t, "alice")
	h.engine.endedDisplay = 50 * time.Millisecond

	require.NoError(t, h.engine.PlaceCall(context.Background(), "bob", nil, domain.CallModeVoice, ""))
	h.drainOne(t)
	h.engine.Hangup()

	assert.Equal(t, StatusEnded, h.engine.State().Status)
	require.Eventually(t, func() bool {
		return h.engine.State().Status == StatusIdle
	}, time.Second, 10*time.Millisecond)
}
