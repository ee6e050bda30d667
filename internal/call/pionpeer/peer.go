// Package pionpeer adapts a Pion WebRTC peer connection to the call
// engine's PeerLink surface.
package pionpeer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/Shivansh47201/vartalap/internal/call"
)

// Config controls peer connection construction
type Config struct {
	// STUNServers defaults to Google's public STUN when empty
	STUNServers []string
}

// DefaultConfig uses a public STUN server
func DefaultConfig() Config {
	return Config{STUNServers: []string{"stun:stun.l.google.com:19302"}}
}

// Factory returns a call.PeerFactory that builds Pion-backed links
func Factory(cfg Config) call.PeerFactory {
	if len(cfg.STUNServers) == 0 {
		cfg = DefaultConfig()
	}
	return func(media call.MediaStream) (call.PeerLink, error) {
		return newPeer(cfg, media)
	}
}

// peer wraps a webrtc.PeerConnection as a call.PeerLink
type peer struct {
	pc *webrtc.PeerConnection

	mu        sync.Mutex
	closed    bool
	remoteSet bool
}

func newPeer(cfg Config, media call.MediaStream) (*peer, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: cfg.STUNServers}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	p := &peer{pc: pc}

	if ts, ok := media.(*TrackStream); ok && len(ts.tracks) > 0 {
		for _, track := range ts.tracks {
			if _, err := pc.AddTrack(track); err != nil {
				_ = pc.Close()
				return nil, fmt.Errorf("failed to add track: %w", err)
			}
		}
	} else {
		// no local media, run receive-only so negotiation still produces
		// valid m-lines with ICE credentials
		if err := addRecvOnlyTransceivers(pc); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}

	return p, nil
}

func addRecvOnlyTransceivers(pc *webrtc.PeerConnection) error {
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return fmt.Errorf("failed to add %s transceiver: %w", kind, err)
		}
	}
	return nil
}

// CreateOffer builds and applies a local offer
func (p *peer) CreateOffer(ctx context.Context) (json.RawMessage, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}

	raw, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode offer: %w", err)
	}
	return raw, nil
}

// CreateAnswer builds and applies a local answer
func (p *peer) CreateAnswer(ctx context.Context) (json.RawMessage, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}
	return raw, nil
}

// SetRemoteDescription applies the remote offer or answer
func (p *peer) SetRemoteDescription(desc json.RawMessage) error {
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(desc, &sd); err != nil {
		return fmt.Errorf("failed to decode session description: %w", err)
	}
	if err := p.pc.SetRemoteDescription(sd); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	p.mu.Lock()
	p.remoteSet = true
	p.mu.Unlock()
	return nil
}

// HasRemoteDescription reports whether a remote description was applied
func (p *peer) HasRemoteDescription() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remoteSet
}

// AddICECandidate feeds one remote candidate to the transport
func (p *peer) AddICECandidate(candidate json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		return fmt.Errorf("failed to decode ice candidate: %w", err)
	}
	if err := p.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("failed to add ice candidate: %w", err)
	}
	return nil
}

// OnICECandidate registers the local candidate callback. The final
// gathering event carries a nil candidate and is not forwarded.
func (p *peer) OnICECandidate(fn func(candidate json.RawMessage)) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		fn(raw)
	})
}

// OnStateChange registers the connection state callback
func (p *peer) OnStateChange(fn func(state call.PeerConnState)) {
	p.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		fn(mapState(s))
	})
}

func mapState(s webrtc.PeerConnectionState) call.PeerConnState {
	switch s {
	case webrtc.PeerConnectionStateNew:
		return call.PeerStateNew
	case webrtc.PeerConnectionStateConnecting:
		return call.PeerStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return call.PeerStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return call.PeerStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return call.PeerStateFailed
	default:
		return call.PeerStateClosed
	}
}

// Close tears the transport down. Idempotent.
func (p *peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.pc.Close()
}
