// Package socket implements the blocking WebSocket connection capability.
//
// The capability:
//   - Dials a ws:// or wss:// endpoint and runs a read loop
//   - Reports fine-grained connection states (Unconnected through Closing)
//   - Delivers state changes, messages, and transport errors as ordered events
//   - Never propagates a transport error across a goroutine boundary by panic
//
// Two backends are provided: gorilla/websocket (default) and coder/websocket.
// Both satisfy the Conn interface consumed by the proxy package.
package socket
