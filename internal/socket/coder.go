package socket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// CoderConn implements Conn on top of github.com/coder/websocket.
type CoderConn struct {
	cfg    Config
	logger *slog.Logger

	events *eventSink

	mu      sync.RWMutex
	conn    *websocket.Conn
	state   State
	closing bool
	done    chan struct{}
}

// NewCoder creates a coder-backed connection.
func NewCoder(cfg Config, logger *slog.Logger) *CoderConn {
	cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &CoderConn{
		cfg:    cfg,
		logger: logger,
		events: newEventSink(cfg.EventBuffer),
		state:  StateUnconnected,
	}
}

// Open dials the endpoint and starts the read loop.
func (c *CoderConn) Open(ctx context.Context, rawURL string) error {
	c.mu.Lock()
	conn, done, closing := c.conn, c.done, c.closing
	c.mu.Unlock()
	if conn != nil {
		if !closing {
			return ErrAlreadyOpen
		}
		<-done
	}

	c.setState(StateHostLookup)
	c.setState(StateConnecting)

	header := http.Header{}
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	wsConn, _, err := websocket.Dial(dialCtx, rawURL, &websocket.DialOptions{
		Subprotocols: c.cfg.Subprotocols,
		HTTPHeader:   header,
	})
	if err != nil {
		c.emit(Event{Kind: EventError, Err: err})
		c.setState(StateUnconnected)
		return err
	}
	wsConn.SetReadLimit(c.cfg.ReadLimit)

	sessionDone := make(chan struct{})
	c.mu.Lock()
	c.conn = wsConn
	c.done = sessionDone
	c.closing = false
	c.mu.Unlock()

	c.setState(StateConnected)
	c.emit(Event{Kind: EventConnected})

	go c.readLoop(wsConn, sessionDone)

	c.logger.Debug("websocket connected", "url", rawURL)
	return nil
}

// Close performs the close handshake; the read loop finishes the teardown.
func (c *CoderConn) Close(code int, reason string) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	c.setState(StateClosing)
	return conn.Close(websocket.StatusCode(code), reason)
}

// SendText writes a text message.
func (c *CoderConn) SendText(payload string) (int64, error) {
	return c.send(websocket.MessageText, []byte(payload))
}

// SendBinary writes a binary message.
func (c *CoderConn) SendBinary(payload []byte) (int64, error) {
	return c.send(websocket.MessageBinary, payload)
}

func (c *CoderConn) send(messageType websocket.MessageType, data []byte) (int64, error) {
	c.mu.RLock()
	conn, state := c.conn, c.state
	c.mu.RUnlock()
	if conn == nil || state != StateConnected {
		return 0, ErrNotOpen
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WriteTimeout)
	defer cancel()

	if err := conn.Write(ctx, messageType, data); err != nil {
		c.emit(Event{Kind: EventError, Err: err})
		return 0, err
	}
	return int64(len(data)), nil
}

// State returns the current native connection state.
func (c *CoderConn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Events returns the ordered event stream.
func (c *CoderConn) Events() <-chan Event {
	return c.events.out
}

func (c *CoderConn) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		messageType, data, err := conn.Read(context.Background())
		if err != nil {
			c.teardown(conn, done, err)
			return
		}
		switch messageType {
		case websocket.MessageText:
			c.emit(Event{Kind: EventTextMessage, Text: string(data)})
		case websocket.MessageBinary:
			c.emit(Event{Kind: EventBinaryMessage, Data: data})
		}
	}
}

func (c *CoderConn) teardown(conn *websocket.Conn, done chan struct{}, err error) {
	c.mu.Lock()
	local := c.closing
	if c.conn == conn {
		c.conn = nil
		c.closing = false
	}
	c.mu.Unlock()

	if err != nil && !local && !isCleanStatus(err) {
		c.emit(Event{Kind: EventError, Err: err})
	}
	_ = conn.CloseNow()

	c.setState(StateUnconnected)
	c.emit(Event{Kind: EventDisconnected})
	close(done)
}

func (c *CoderConn) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.emit(Event{Kind: EventStateChanged, State: s})
}

// emit never blocks; overflow past the channel buffer is queued by the sink.
func (c *CoderConn) emit(ev Event) {
	c.events.emit(ev)
}

func isCleanStatus(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
