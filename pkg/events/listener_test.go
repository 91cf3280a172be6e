package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/lcu-keeper/pkg/lcu"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

type staticSource struct {
	session lcu.Session
}

func (s staticSource) Session() lcu.Session {
	return s.session
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantErr   bool
		wantTopic string
		wantPhase string
	}{
		{
			name:      "phase event",
			frame:     `[8,"OnJsonApiEvent_lol-gameflow_v1_gameflow-phase",{"data":"ReadyCheck","eventType":"Update","uri":"/lol-gameflow/v1/gameflow-phase"}]`,
			wantTopic: PhaseTopic,
			wantPhase: "ReadyCheck",
		},
		{
			name:      "non string data",
			frame:     `[8,"OnJsonApiEvent",{"data":{"x":1}}]`,
			wantTopic: "OnJsonApiEvent",
		},
		{name: "welcome frame", frame: `[0,"session-id",1,"server"]`, wantErr: true},
		{name: "too short", frame: `[8,"topic"]`, wantErr: true},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "bad payload", frame: `[8,"topic","data"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.frame))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTopic, ev.Topic)
			assert.Equal(t, tt.wantPhase, ev.Phase())
		})
	}
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "wss://127.0.0.1:2999/", websocketURL(lcu.Session{Port: 2999, Scheme: "https"}))
	assert.Equal(t, "ws://127.0.0.1:2999/", websocketURL(lcu.Session{Port: 2999, Scheme: "http"}))
}

func TestListenNotConnected(t *testing.T) {
	l := New(Config{}, staticSource{}, nil, logger.Noop())
	assert.ErrorIs(t, l.Listen(context.Background()), ErrNotConnected)
}

func TestListenDeliversPhases(t *testing.T) {
	subscribed := make(chan []interface{}, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "riot" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub []interface{}
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub

		frames := []string{
			`[8,"OnJsonApiEvent_lol-chat_v1_me",{"data":{},"eventType":"Update","uri":"/lol-chat/v1/me"}]`,
			`[8,"` + PhaseTopic + `",{"data":"ReadyCheck","eventType":"Update","uri":"/lol-gameflow/v1/gameflow-phase"}]`,
			`[8,"` + PhaseTopic + `",{"data":"ChampSelect","eventType":"Update","uri":"/lol-gameflow/v1/gameflow-phase"}]`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	source := staticSource{session: lcu.Session{Port: port, Password: "pw", Scheme: "https", Connected: true}}

	var phases []string
	l := New(Config{}, source, func(phase string) { phases = append(phases, phase) }, logger.Noop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, l.Listen(ctx))

	select {
	case sub := <-subscribed:
		require.Len(t, sub, 2)
		assert.Equal(t, float64(opcodeSubscribe), sub[0])
		assert.Equal(t, PhaseTopic, sub[1])
	default:
		t.Fatal("no subscription received")
	}

	assert.Equal(t, []string{"ReadyCheck", "ChampSelect"}, phases)
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New(Config{RetryDelay: 10 * time.Millisecond}, staticSource{}, nil, logger.Noop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
