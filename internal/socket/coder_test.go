package socket

import (
	"context"
	"testing"
	"time"
)

func TestCoderConn_OpenEmitsOrderedStates(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	conn := NewCoder(testConfig(), nil)
	if err := conn.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close(CloseNormalClosure, "")

	expectStateChange(t, conn.Events(), StateHostLookup)
	expectStateChange(t, conn.Events(), StateConnecting)
	expectStateChange(t, conn.Events(), StateConnected)
	if ev := nextEvent(t, conn.Events()); ev.Kind != EventConnected {
		t.Errorf("event kind = %v, want %v", ev.Kind, EventConnected)
	}
}

func TestCoderConn_SendTextEcho(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	conn := NewCoder(testConfig(), nil)
	if err := conn.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close(CloseNormalClosure, "")

	awaitKind(t, conn.Events(), EventConnected)

	n, err := conn.SendText("ping")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if n != 4 {
		t.Errorf("SendText returned %d, want 4", n)
	}

	ev := awaitKind(t, conn.Events(), EventTextMessage)
	if ev.Text != "ping" {
		t.Errorf("received %q, want %q", ev.Text, "ping")
	}
}

func TestCoderConn_CloseSequence(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	conn := NewCoder(testConfig(), nil)
	if err := conn.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	awaitKind(t, conn.Events(), EventConnected)

	if err := conn.Close(CloseNormalClosure, "bye"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expectStateChange(t, conn.Events(), StateClosing)
	expectStateChange(t, conn.Events(), StateUnconnected)
	if ev := nextEvent(t, conn.Events()); ev.Kind != EventDisconnected {
		t.Errorf("event kind = %v, want %v", ev.Kind, EventDisconnected)
	}
}

func TestCoderConn_SendWhileClosed(t *testing.T) {
	conn := NewCoder(testConfig(), nil)

	n, err := conn.SendText("hello")
	if err != ErrNotOpen {
		t.Errorf("SendText error = %v, want %v", err, ErrNotOpen)
	}
	if n != 0 {
		t.Errorf("SendText returned %d, want 0", n)
	}
}

func TestCoderConn_CloseUnderInboundPressure(t *testing.T) {
	server := mockWSServer(t, floodHandler)
	defer server.Close()

	cfg := testConfig()
	cfg.EventBuffer = MinEventBuffer
	conn := NewCoder(cfg, nil)
	if err := conn.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- conn.Close(CloseNormalClosure, "done") }()

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked while events were undrained")
	}

	awaitKind(t, conn.Events(), EventDisconnected)
}
