package socket

import (
	"sync"

	"github.com/eapache/queue"
)

// eventSink decouples event production from consumption. emit never blocks:
// when the out channel is full, events overflow into an unbounded queue that
// a pump goroutine drains in order. Backends emit from their command paths
// (Open, Close, the sends) as well as their read loops, and the consumer of
// Events is typically the same goroutine issuing those commands, so a
// blocking emit would deadlock it.
type eventSink struct {
	mu       sync.Mutex
	overflow *queue.Queue
	pumping  bool
	out      chan Event
}

func newEventSink(buffer int) *eventSink {
	return &eventSink{
		overflow: queue.New(),
		out:      make(chan Event, buffer),
	}
}

// emit delivers ev without blocking, preserving emission order.
func (s *eventSink) emit(ev Event) {
	s.mu.Lock()
	if s.pumping {
		// Keep order: everything goes behind the overflowed events.
		s.overflow.Add(ev)
		s.mu.Unlock()
		return
	}
	select {
	case s.out <- ev:
		s.mu.Unlock()
	default:
		s.overflow.Add(ev)
		s.pumping = true
		s.mu.Unlock()
		go s.pump()
	}
}

// pump moves overflowed events to the out channel and exits once the
// overflow is empty.
func (s *eventSink) pump() {
	for {
		s.mu.Lock()
		if s.overflow.Length() == 0 {
			s.pumping = false
			s.mu.Unlock()
			return
		}
		ev := s.overflow.Remove().(Event)
		s.mu.Unlock()
		s.out <- ev
	}
}
