// Package lcu talks to the private HTTP API of a locally running game client.
//
// The client listens on a random loopback port protected by a per-launch
// password, both published in its lockfile. A Handler owns the current
// session: Discover reads the lockfile and marks the session connected, Call
// issues authenticated requests, and any transport failure clears the session
// so the next Discover starts over. There are no retries inside the handler;
// callers decide when to rediscover.
//
// Example usage:
//
//	h := lcu.New(lcu.Config{Timeout: 4 * time.Second}, locator, log)
//	if !h.Discover() {
//	    return // client not running
//	}
//	phase, err := h.GameflowPhase(ctx)
package lcu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/discovery"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

// DefaultTimeout bounds a single request when Config.Timeout is unset.
const DefaultTimeout = 4 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// Session describes the connection to the local client.
// It is either fully populated and connected, or zero.
type Session struct {
	Port      int
	Password  string
	Scheme    string
	Connected bool
}

// BaseURL returns the API root, e.g. https://127.0.0.1:54321.
func (s Session) BaseURL() string {
	return s.Scheme + "://127.0.0.1:" + strconv.Itoa(s.Port)
}

// AuthHeader returns the Basic authorization header value.
func (s Session) AuthHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+s.Password))
}

// Config contains handler configuration.
type Config struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Response is a completed HTTP exchange with the client.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Handler manages the session with the local client.
// It is safe for concurrent use.
type Handler struct {
	config  Config
	locator discovery.Locator
	client  *http.Client
	logger  logger.Logger

	mu      sync.RWMutex
	session Session
}

// New creates a disconnected handler.
func New(cfg Config, locator discovery.Locator, log logger.Logger) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Handler{
		config:  cfg,
		locator: locator,
		logger:  log,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig:     TLSConfig(log),
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Discover locates the lockfile and establishes a session. It returns false
// and clears the session when the client cannot be found. It does no network
// I/O and is cheap to call on every tick.
func (h *Handler) Discover() bool {
	lf, source, err := h.locator.Find()

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		if h.session.Connected {
			h.logger.Info("client lost", "error", err)
		}
		h.session = Session{}
		return false
	}

	next := Session{
		Port:      lf.Port,
		Password:  lf.Password,
		Scheme:    lf.Protocol,
		Connected: true,
	}
	if next != h.session {
		h.logger.Info("client session established",
			"port", next.Port,
			"source", source,
			"token", logger.Secret(next.Password))
	}
	h.session = next
	return true
}

// Invalidate clears the session. The next Discover rebuilds it.
func (h *Handler) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session.Connected {
		h.logger.Info("client session cleared", "port", h.session.Port)
	}
	h.session = Session{}
}

// Connected reports whether a session is established.
func (h *Handler) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session.Connected
}

// Session returns a copy of the current session.
func (h *Handler) Session() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}

// Call sends a request to the client. A non-nil body is sent as JSON.
//
// Returns ErrNotConnected without any I/O when there is no session. A
// transport failure clears the session and returns an error wrapping
// ErrTransport. Non-2xx replies are returned as responses, not errors.
func (h *Handler) Call(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	sess := h.Session()
	if !sess.Connected {
		return nil, ErrNotConnected
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, sess.BaseURL()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", sess.AuthHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, h.transportFailure(ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, h.transportFailure(ctx, method, path, err)
	}

	h.logger.Debug("client request", "method", method, "path", path, "status", resp.StatusCode)
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// transportFailure clears the session unless the caller gave up first.
func (h *Handler) transportFailure(ctx context.Context, method, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return ctxErr
	}
	h.Invalidate()
	return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
}
