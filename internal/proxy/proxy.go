package proxy

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/akrylov/wsproxy/internal/socket"
)

// SendQueued is the sentinel returned by SendText and SendBinary. The message
// was accepted for asynchronous delivery; the true transferred size would
// require a blocking round trip to the worker, which this design avoids.
// Callers must not treat it as a delivery confirmation.
const SendQueued int64 = -1

// ConnFactory builds the connection the worker will own. It is invoked inside
// the worker goroutine so the connection never exists outside it.
type ConnFactory func() socket.Conn

// Proxy forwards commands to a connection owned by a dedicated worker
// goroutine and relays the connection's events back to the caller. No method
// blocks on network I/O.
type Proxy struct {
	id     uuid.UUID
	logger *slog.Logger

	factory ConnFactory

	cmds        *mailbox
	events      chan socket.Event
	eventBuffer int

	done   chan struct{}
	exited chan struct{}
	down   atomic.Bool

	// opened tracks whether a connection session is live. Worker-owned:
	// written only from the worker goroutine (apply, relay, teardown).
	opened bool

	// Caller-visible cached fields, written by the worker relay path.
	mu      sync.RWMutex
	url     string
	state   socket.State
	errText string
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEventBuffer sets the caller-side event channel buffer size. Values
// below socket.MinEventBuffer keep the default.
func WithEventBuffer(n int) Option {
	return func(p *Proxy) {
		if n >= socket.MinEventBuffer {
			p.eventBuffer = n
		}
	}
}

// New creates a proxy and starts its worker. The worker creates the
// connection via factory and owns it until Shutdown.
func New(factory ConnFactory, opts ...Option) *Proxy {
	p := &Proxy{
		id:          uuid.New(),
		logger:      slog.Default(),
		factory:     factory,
		cmds:        newMailbox(),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		eventBuffer: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("proxy_id", p.id)
	p.events = make(chan socket.Event, p.eventBuffer)

	go p.run()
	return p
}

const defaultEventBuffer = 64

// ID returns the proxy's unique identifier.
func (p *Proxy) ID() uuid.UUID {
	return p.id
}

// Open records the target URL and queues an open command. It never blocks;
// success or failure is observed later through events.
func (p *Proxy) Open(url string) {
	if p.down.Load() {
		return
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	p.cmds.put(command{kind: cmdOpen, url: url})
}

// Close queues a close command. It never blocks.
func (p *Proxy) Close(code int, reason string) {
	if p.down.Load() {
		return
	}
	p.cmds.put(command{kind: cmdClose, code: code, reason: reason})
}

// SendText queues a text message and returns SendQueued.
func (p *Proxy) SendText(payload string) int64 {
	if p.down.Load() {
		return SendQueued
	}
	p.cmds.put(command{kind: cmdSendText, text: payload})
	return SendQueued
}

// SendBinary queues a binary message and returns SendQueued.
func (p *Proxy) SendBinary(payload []byte) int64 {
	if p.down.Load() {
		return SendQueued
	}
	p.cmds.put(command{kind: cmdSendBinary, data: payload})
	return SendQueued
}

// Events returns the relayed connection events in emission order.
func (p *Proxy) Events() <-chan socket.Event {
	return p.events
}

// State returns the last state relayed from the worker.
func (p *Proxy) State() socket.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// URL returns the last URL passed to Open.
func (p *Proxy) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// ErrorString returns the diagnostic text of the last error event. It may be
// empty when the transport did not supply one.
func (p *Proxy) ErrorString() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.errText
}

// Shutdown stops the worker and blocks until it has exited. The connection is
// closed by the worker itself before it returns, so it is never touched after
// teardown. Commands issued after Shutdown are silently dropped. Shutdown is
// idempotent and safe to call from multiple goroutines.
func (p *Proxy) Shutdown() {
	if p.down.CompareAndSwap(false, true) {
		close(p.done)
	}
	<-p.exited
}

// run is the worker. It creates the connection, executes commands serially,
// and relays events until shutdown. The connection's lifetime is strictly
// nested inside this function.
func (p *Proxy) run() {
	defer close(p.exited)

	conn := p.factory()
	defer p.teardown(conn)

	for {
		select {
		case <-p.done:
			return
		case <-p.cmds.wake:
			for {
				cmd, ok := p.cmds.take()
				if !ok {
					break
				}
				p.apply(conn, cmd)
			}
		case ev, ok := <-conn.Events():
			if !ok {
				return
			}
			p.relay(ev)
		}
	}
}

// teardown closes the connection, then discards whatever a live session's
// teardown still emits so no backend goroutine is left parked on the event
// channel. Disconnected is always the final event of a session.
func (p *Proxy) teardown(conn socket.Conn) {
	_ = conn.Close(socket.CloseGoingAway, "proxy shutdown")
	for p.opened {
		if ev := <-conn.Events(); ev.Kind == socket.EventDisconnected {
			p.opened = false
		}
	}
}

func (p *Proxy) apply(conn socket.Conn, cmd command) {
	switch cmd.kind {
	case cmdOpen:
		// Errors surface as events emitted by the connection itself.
		if err := conn.Open(context.Background(), cmd.url); err != nil {
			p.logger.Debug("open failed", "url", cmd.url, "error", err)
		} else {
			p.opened = true
		}
	case cmdClose:
		if err := conn.Close(cmd.code, cmd.reason); err != nil {
			p.logger.Debug("close failed", "error", err)
		}
	case cmdSendText:
		if _, err := conn.SendText(cmd.text); err != nil {
			p.logger.Debug("send text failed", "error", err)
		}
	case cmdSendBinary:
		if _, err := conn.SendBinary(cmd.data); err != nil {
			p.logger.Debug("send binary failed", "error", err)
		}
	}
}

// relay updates the cached caller-visible fields and forwards the event.
// Forwarding blocks until the caller consumes the event, preserving order
// with no loss; shutdown unblocks it.
func (p *Proxy) relay(ev socket.Event) {
	if ev.Kind == socket.EventDisconnected {
		p.opened = false
	}

	p.mu.Lock()
	switch ev.Kind {
	case socket.EventStateChanged:
		p.state = ev.State
	case socket.EventError:
		if ev.Err != nil {
			p.errText = ev.Err.Error()
		}
	}
	p.mu.Unlock()

	select {
	case p.events <- ev:
	case <-p.done:
	}
}
