package pionpeer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/Shivansh47201/vartalap/internal/call"
	"github.com/Shivansh47201/vartalap/internal/domain"
)

// TrackStream holds local media as Pion sample tracks
type TrackStream struct {
	tracks []webrtc.TrackLocal

	mu      sync.Mutex
	stopped bool
}

// StopTracks releases the stream. Idempotent. Sample tracks hold no
// device handles, so this only marks the stream dead for its feeders.
func (s *TrackStream) StopTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether StopTracks has been called
func (s *TrackStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// AudioTrack returns the Opus track, nil for receive-only streams
func (s *TrackStream) AudioTrack() *webrtc.TrackLocalStaticSample {
	for _, t := range s.tracks {
		if st, ok := t.(*webrtc.TrackLocalStaticSample); ok && st.Kind() == webrtc.RTPCodecTypeAudio {
			return st
		}
	}
	return nil
}

// VideoTrack returns the VP8 track, nil for voice calls
func (s *TrackStream) VideoTrack() *webrtc.TrackLocalStaticSample {
	for _, t := range s.tracks {
		if st, ok := t.(*webrtc.TrackLocalStaticSample); ok && st.Kind() == webrtc.RTPCodecTypeVideo {
			return st
		}
	}
	return nil
}

// SampleSource is a MediaSource producing sample tracks fed by the
// application (file playback, synthesized audio, test fixtures). It has
// no capture-device dependency, which keeps it usable headless.
type SampleSource struct{}

// NewSampleSource creates a SampleSource
func NewSampleSource() *SampleSource {
	return &SampleSource{}
}

// Acquire builds an Opus track, plus a VP8 track for video calls
func (s *SampleSource) Acquire(ctx context.Context, mode domain.CallMode) (call.MediaStream, error) {
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "vartalap-audio",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio track: %w", err)
	}

	stream := &TrackStream{tracks: []webrtc.TrackLocal{audio}}

	if mode == domain.CallModeVideo {
		video, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
			"video", "vartalap-video",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create video track: %w", err)
		}
		stream.tracks = append(stream.tracks, video)
	}

	return stream, nil
}
