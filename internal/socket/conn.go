package socket

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotOpen         = errors.New("connection not open")
	ErrAlreadyOpen     = errors.New("connection already open")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrInvalidScheme   = errors.New("url scheme must be ws or wss")
)

// Conn is a blocking full-duplex connection. All methods may block on network
// I/O; they are intended to be called from a single goroutine (the proxy
// worker). Lifecycle events are delivered on Events in emission order.
// Implementations must deliver events without requiring Events to be drained
// concurrently with a command: the consumer is typically the same goroutine
// that calls Open, Close, and the sends, so an emit that waits on the event
// channel from inside a command would deadlock it.
type Conn interface {
	// Open dials the endpoint. Dial failures are returned and also emitted
	// as an Error event.
	Open(ctx context.Context, url string) error

	// Close performs the close handshake with the given code and reason.
	Close(code int, reason string) error

	// SendText writes a text message and returns the number of bytes sent.
	SendText(payload string) (int64, error)

	// SendBinary writes a binary message and returns the number of bytes sent.
	SendBinary(payload []byte) (int64, error)

	// State returns the current native connection state.
	State() State

	// Events returns the ordered event stream for this connection.
	Events() <-chan Event
}

// Config configures a connection backend.
type Config struct {
	Origin           string        // Origin header sent on the handshake (optional)
	Subprotocols     []string      // Requested subprotocols (optional)
	HandshakeTimeout time.Duration // Dial deadline
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Keepalive ping period (gorilla backend)
	PingTimeout      time.Duration // Max time without pong before stale
	ReadLimit        int64         // Max inbound message size in bytes
	EventBuffer      int           // Event channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     15 * time.Second,
		PingTimeout:      60 * time.Second,
		ReadLimit:        1 << 20, // 1 MiB
		EventBuffer:      64,
	}
}

// MinEventBuffer is the smallest event channel buffer a connection or proxy
// will run with; it absorbs the handful of events a single command emits
// before the consumer gets scheduled again.
const MinEventBuffer = 16

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = def.PingTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = def.ReadLimit
	}
	if c.EventBuffer < MinEventBuffer {
		c.EventBuffer = def.EventBuffer
	}
}
