package proxy

import (
	"sync"

	"github.com/eapache/queue"
)

// mailbox is an unbounded FIFO from the caller to the worker. put never
// blocks, which keeps every proxy operation non-blocking no matter how slow
// the worker is draining.
type mailbox struct {
	mu   sync.Mutex
	q    *queue.Queue
	wake chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		q:    queue.New(),
		wake: make(chan struct{}, 1),
	}
}

func (m *mailbox) put(cmd command) {
	m.mu.Lock()
	m.q.Add(cmd)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() (command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.q.Length() == 0 {
		return command{}, false
	}
	return m.q.Remove().(command), true
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.Length()
}
