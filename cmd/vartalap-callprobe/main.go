// vartalap-callprobe is a headless call client used to exercise the
// signaling path end to end: it logs in, binds a WebSocket identity, and
// either places a call to a target user or auto-answers incoming calls.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/call"
	"github.com/Shivansh47201/vartalap/internal/call/pionpeer"
	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/logger"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "Vartalap server base URL")
		username  = flag.String("username", "", "account username")
		pass      = flag.String("password", "", "account password")
		callee    = flag.String("call", "", "user ID to call; empty means answer mode")
		mode      = flag.String("mode", "voice", "call mode: voice or video")
		duration  = flag.Duration("duration", 15*time.Second, "how long to keep a connected call up")
	)
	flag.Parse()

	logger.InitDefault()
	defer logger.Log.Sync()

	if *username == "" || *pass == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		os.Exit(1)
	}

	probe, err := newProbe(*serverURL, *username, *pass)
	if err != nil {
		logger.Log.Fatal("probe setup failed", zap.Error(err))
	}
	defer probe.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *callee != "" {
		err = probe.placeCall(ctx, *callee, domain.CallMode(*mode), *duration)
	} else {
		err = probe.answerLoop(ctx, *duration)
	}
	if err != nil {
		logger.Log.Fatal("probe run failed", zap.Error(err))
	}
}

type probe struct {
	baseURL string
	token   string
	selfID  string
	self    *domain.UserSummary
	conn    *websocket.Conn
	engine  *call.Engine
	rec     *call.Recorder
	events  chan incoming
}

type incoming struct {
	event string
	sig   domain.CallSignal
}

func newProbe(baseURL, username, password string) (*probe, error) {
	p := &probe{baseURL: baseURL, events: make(chan incoming, 16)}

	if err := p.login(username, password); err != nil {
		return nil, err
	}
	if err := p.connect(); err != nil {
		return nil, err
	}

	p.rec = call.NewRecorder(&restSink{baseURL: baseURL, token: p.token})
	p.engine = call.NewEngine(call.Config{
		SelfID:       p.selfID,
		SelfProfile:  p.self,
		Media:        pionpeer.NewSampleSource(),
		NewPeer:      pionpeer.Factory(pionpeer.DefaultConfig()),
		Recorder:     p.rec,
		RingTimeout:  constants.CallRingTimeout,
		EndedDisplay: constants.CallEndedDisplay,
	})

	go p.readLoop()
	go p.writeLoop()
	return p, nil
}

func (p *probe) login(username, password string) error {
	payload, _ := json.Marshal(domain.UserLogin{Username: username, Password: password})
	resp, err := http.Post(p.baseURL+"/api/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			User  *domain.UserResponse `json:"user"`
			Token string               `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	p.token = body.Data.Token
	p.selfID = body.Data.User.UserID.String()
	p.self = &domain.UserSummary{
		UserID:    body.Data.User.UserID,
		Name:      body.Data.User.Name,
		Username:  body.Data.User.Username,
		AvatarURL: body.Data.User.AvatarURL,
	}
	return nil
}

func (p *probe) connect() error {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	p.conn = conn

	return p.send(domain.EventRegister, domain.RegisterPayload{UserID: p.selfID})
}

func (p *probe) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.WriteJSON(domain.Envelope{Event: event, Data: raw})
}

// readLoop feeds relayed call signals into the engine and everything else
// into the event channel for the run loops.
func (p *probe) readLoop() {
	for {
		var env domain.Envelope
		if err := p.conn.ReadJSON(&env); err != nil {
			close(p.events)
			return
		}

		switch env.Event {
		case domain.EventCallOffer, domain.EventCallAnswer, domain.EventCallICECandidate,
			domain.EventCallEnd, domain.EventCallReject:
			var sig domain.CallSignal
			if err := json.Unmarshal(env.Data, &sig); err != nil {
				logger.Log.Warn("bad call signal", zap.Error(err))
				continue
			}
			p.engine.HandleSignal(env.Event, sig)
			select {
			case p.events <- incoming{event: env.Event, sig: sig}:
			default:
			}
		}
	}
}

// writeLoop forwards the engine's outbound signals over the socket.
func (p *probe) writeLoop() {
	for sig := range p.engine.Outbound() {
		if err := p.send(sig.Event, sig.Payload); err != nil {
			logger.Log.Warn("failed to send signal", zap.String("event", sig.Event), zap.Error(err))
			return
		}
	}
}

func (p *probe) placeCall(ctx context.Context, calleeID string, mode domain.CallMode, hold time.Duration) error {
	if err := p.engine.PlaceCall(ctx, calleeID, nil, mode, ""); err != nil {
		return err
	}
	logger.Log.Info("calling", zap.String("callee", calleeID))

	deadline := time.NewTimer(hold)
	defer deadline.Stop()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.engine.Hangup()
			return nil
		case <-deadline.C:
			p.engine.Hangup()
			logger.Log.Info("call finished", zap.Int("history_entries", len(p.rec.List())))
			return nil
		case <-ticker.C:
			st := p.engine.State()
			if st.Status == call.StatusIdle || st.Status == call.StatusEnded {
				logger.Log.Info("call over", zap.String("status", string(st.Status)))
				return nil
			}
		}
	}
}

func (p *probe) answerLoop(ctx context.Context, hold time.Duration) error {
	logger.Log.Info("waiting for calls", zap.String("self", p.selfID))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-p.events:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			if ev.event != domain.EventCallOffer {
				continue
			}
			if p.engine.State().Status != call.StatusIncoming {
				continue
			}
			logger.Log.Info("answering call", zap.String("from", ev.sig.From))
			if err := p.engine.Accept(ctx); err != nil {
				logger.Log.Warn("accept failed", zap.Error(err))
				continue
			}
			time.AfterFunc(hold, p.engine.Hangup)
		}
	}
}

func (p *probe) close() {
	if p.engine != nil {
		p.engine.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// restSink persists finalized call records through the call-log endpoint.
type restSink struct {
	baseURL string
	token   string
}

func (s *restSink) Create(ctx context.Context, input *domain.CallLogCreate) (*domain.CallLogResponse, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/call-logs", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("call log rejected with status %d", resp.StatusCode)
	}

	var body struct {
		Data *domain.CallLogResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}
