package proxy

import (
	"fmt"
	"sync"
	"testing"

	"pgregory.net/rapid"
)

func TestMailbox_TakeEmpty(t *testing.T) {
	m := newMailbox()
	if _, ok := m.take(); ok {
		t.Error("take on empty mailbox returned ok")
	}
	if m.len() != 0 {
		t.Errorf("len = %d, want 0", m.len())
	}
}

func TestMailbox_PutWakes(t *testing.T) {
	m := newMailbox()
	m.put(command{kind: cmdSendText, text: "a"})
	select {
	case <-m.wake:
	default:
		t.Error("put did not signal wake")
	}
}

func TestMailbox_FIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := newMailbox()
		n := rapid.IntRange(0, 100).Draw(t, "n")
		for i := 0; i < n; i++ {
			m.put(command{kind: cmdSendText, text: fmt.Sprintf("m%d", i)})
		}
		if m.len() != n {
			t.Fatalf("len = %d, want %d", m.len(), n)
		}
		for i := 0; i < n; i++ {
			cmd, ok := m.take()
			if !ok {
				t.Fatalf("take %d returned empty", i)
			}
			if want := fmt.Sprintf("m%d", i); cmd.text != want {
				t.Fatalf("take %d = %q, want %q", i, cmd.text, want)
			}
		}
		if _, ok := m.take(); ok {
			t.Fatal("mailbox not empty after draining")
		}
	})
}

func TestMailbox_ConcurrentPut(t *testing.T) {
	m := newMailbox()
	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m.put(command{kind: cmdSendText})
			}
		}()
	}
	wg.Wait()

	if got := m.len(); got != producers*perProducer {
		t.Errorf("len = %d, want %d", got, producers*perProducer)
	}
}
