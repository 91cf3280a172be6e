// Package events subscribes to game phase changes pushed by the local client.
//
// The client exposes a WAMP-style WebSocket on the same port and password as
// its HTTP API. A subscription frame [5, topic] makes it push event frames
// [8, topic, payload]. Events are only a hint: the listener calls OnPhase for
// every phase event and the caller nudges its polling loop, which stays the
// source of truth.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/0xmhha/lcu-keeper/pkg/lcu"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

// PhaseTopic is the topic carrying gameflow phase changes.
const PhaseTopic = "OnJsonApiEvent_lol-gameflow_v1_gameflow-phase"

// WAMP message type codes used by the client.
const (
	opcodeSubscribe = 5
	opcodeEvent     = 8
)

// Default values for Config.
const (
	DefaultRetryDelay       = 3 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
)

// SessionSource provides the current client session.
type SessionSource interface {
	Session() lcu.Session
}

// Event is a decoded event frame.
type Event struct {
	Topic     string          `json:"-"`
	URI       string          `json:"uri"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// Phase returns the event data as a phase name, or "" when it is not a string.
func (e Event) Phase() string {
	var phase string
	if err := json.Unmarshal(e.Data, &phase); err != nil {
		return ""
	}
	return phase
}

// Config contains listener configuration.
type Config struct {
	// RetryDelay is the pause between connection attempts.
	RetryDelay time.Duration

	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration
}

// Listener keeps a phase subscription open while the client is running.
type Listener struct {
	config  Config
	source  SessionSource
	dialer  *websocket.Dialer
	onPhase func(phase string)
	logger  logger.Logger
}

// New creates a listener. onPhase is called from the listener goroutine.
func New(cfg Config, source SessionSource, onPhase func(phase string), log logger.Logger) *Listener {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	return &Listener{
		config: cfg,
		source: source,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			TLSClientConfig:  lcu.TLSConfig(log),
		},
		onPhase: onPhase,
		logger:  log,
	}
}

// Run reconnects and listens until ctx is cancelled. It always returns nil
// on cancellation; connection errors are logged and retried.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.Listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, ErrNotConnected) {
			l.logger.Debug("event stream ended", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.config.RetryDelay):
		}
	}
}

// Listen opens one subscription and reads events until the connection drops
// or ctx is cancelled.
func (l *Listener) Listen(ctx context.Context) error {
	sess := l.source.Session()
	if !sess.Connected {
		return ErrNotConnected
	}

	header := http.Header{}
	header.Set("Authorization", sess.AuthHeader())

	conn, resp, err := l.dialer.DialContext(ctx, websocketURL(sess), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open event stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	if err := conn.WriteJSON([]interface{}{opcodeSubscribe, PhaseTopic}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	l.logger.Info("subscribed to client events", "topic", PhaseTopic)

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if messageType != websocket.TextMessage || len(payload) == 0 {
			continue
		}

		ev, err := ParseEvent(payload)
		if err != nil {
			continue
		}
		if ev.Topic != PhaseTopic {
			continue
		}

		phase := ev.Phase()
		l.logger.Debug("phase event", "phase", phase, "type", ev.EventType)
		if l.onPhase != nil {
			l.onPhase(phase)
		}
	}
}

// ParseEvent decodes an [8, topic, payload] frame.
func ParseEvent(frame []byte) (Event, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(frame, &parts); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(parts) < 3 {
		return Event{}, fmt.Errorf("%w: want 3 elements, got %d", ErrMalformedEvent, len(parts))
	}

	var opcode int
	if err := json.Unmarshal(parts[0], &opcode); err != nil || opcode != opcodeEvent {
		return Event{}, fmt.Errorf("%w: not an event", ErrMalformedEvent)
	}

	var ev Event
	if err := json.Unmarshal(parts[1], &ev.Topic); err != nil {
		return Event{}, fmt.Errorf("%w: topic: %v", ErrMalformedEvent, err)
	}
	if err := json.Unmarshal(parts[2], &ev); err != nil {
		return Event{}, fmt.Errorf("%w: payload: %v", ErrMalformedEvent, err)
	}
	return ev, nil
}

func websocketURL(sess lcu.Session) string {
	scheme := "wss"
	if strings.EqualFold(sess.Scheme, "http") {
		scheme = "ws"
	}
	return scheme + "://127.0.0.1:" + strconv.Itoa(sess.Port) + "/"
}

func isNormalClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, io.EOF)
}
