package socket

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaConn implements Conn on top of github.com/gorilla/websocket.
type GorillaConn struct {
	cfg    Config
	logger *slog.Logger

	events *eventSink

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	conn       *websocket.Conn
	state      State
	lastPongAt time.Time
	closing    bool          // local close in progress
	done       chan struct{} // current session; closed when the read loop exits
}

// NewGorilla creates a gorilla-backed connection. The connection is reusable:
// after a close completes it can be opened again.
func NewGorilla(cfg Config, logger *slog.Logger) *GorillaConn {
	cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &GorillaConn{
		cfg:    cfg,
		logger: logger,
		events: newEventSink(cfg.EventBuffer),
		state:  StateUnconnected,
	}
}

// Open dials the endpoint and starts the read and keepalive loops.
func (c *GorillaConn) Open(ctx context.Context, rawURL string) error {
	c.mu.Lock()
	conn, done, closing := c.conn, c.done, c.closing
	c.mu.Unlock()
	if conn != nil {
		if !closing {
			return ErrAlreadyOpen
		}
		// A close is in flight; wait for its teardown before redialing.
		<-done
	}

	c.setState(StateHostLookup)
	c.setState(StateConnecting)

	header := http.Header{}
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		Subprotocols:     c.cfg.Subprotocols,
	}

	wsConn, _, err := dialer.DialContext(ctx, rawURL, header)
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
	c.lastPongAt = time.Now()
	c.mu.Unlock()

	// Server pings keep the connection fresh too.
	wsConn.SetPingHandler(func(data string) error {
		c.mu.Lock()
		c.lastPongAt = time.Now()
		c.mu.Unlock()
		return wsConn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	wsConn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPongAt = time.Now()
		c.mu.Unlock()
		return nil
	})

	c.setState(StateConnected)
	c.emit(Event{Kind: EventConnected})

	go c.readLoop(wsConn, sessionDone)
	go c.pingLoop(wsConn, sessionDone)

	c.logger.Debug("websocket connected", "url", rawURL)
	return nil
}

// Close initiates the close handshake. The read loop finishes the teardown
// and emits the final Unconnected and Disconnected events.
func (c *GorillaConn) Close(code int, reason string) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	c.setState(StateClosing)

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()

	return conn.Close()
}

// SendText writes a text message.
func (c *GorillaConn) SendText(payload string) (int64, error) {
	return c.send(websocket.TextMessage, []byte(payload))
}

// SendBinary writes a binary message.
func (c *GorillaConn) SendBinary(payload []byte) (int64, error) {
	return c.send(websocket.BinaryMessage, payload)
}

func (c *GorillaConn) send(messageType int, data []byte) (int64, error) {
	c.mu.RLock()
	conn, state := c.conn, c.state
	c.mu.RUnlock()
	if conn == nil || state != StateConnected {
		return 0, ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(messageType, data); err != nil {
		c.emit(Event{Kind: EventError, Err: err})
		return 0, err
	}
	return int64(len(data)), nil
}

// State returns the current native connection state.
func (c *GorillaConn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Events returns the ordered event stream.
func (c *GorillaConn) Events() <-chan Event {
	return c.events.out
}

// readLoop reads messages until the connection fails or closes, then runs the
// session teardown.
func (c *GorillaConn) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.teardown(conn, done, err)
			return
		}
		switch messageType {
		case websocket.TextMessage:
			c.emit(Event{Kind: EventTextMessage, Text: string(data)})
		case websocket.BinaryMessage:
			c.emit(Event{Kind: EventBinaryMessage, Data: data})
		}
	}
}

func (c *GorillaConn) teardown(conn *websocket.Conn, done chan struct{}, err error) {
	c.mu.Lock()
	local := c.closing
	if c.conn == conn {
		c.conn = nil
		c.closing = false
	}
	c.mu.Unlock()

	if err != nil && !local && !isCleanClose(err) {
		c.emit(Event{Kind: EventError, Err: err})
	}
	_ = conn.Close()

	c.setState(StateUnconnected)
	c.emit(Event{Kind: EventDisconnected})
	close(done)
}

// pingLoop sends keepalive pings and flags stale connections.
func (c *GorillaConn) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPong := c.lastPongAt
			c.mu.RUnlock()

			if time.Since(lastPong) > c.cfg.PingTimeout {
				c.logger.Warn("no pong received, connection stale",
					"last_pong", lastPong,
					"timeout", c.cfg.PingTimeout,
				)
				c.emit(Event{Kind: EventError, Err: ErrStaleConnection})
				// The read loop observes the closed conn and tears down.
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *GorillaConn) setState(s State) {
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
func (c *GorillaConn) emit(ev Event) {
	c.events.emit(ev)
}

func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}
