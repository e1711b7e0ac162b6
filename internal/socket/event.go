package socket

// EventKind identifies a connection lifecycle event.
type EventKind uint8

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventStateChanged
	EventTextMessage
	EventBinaryMessage
	EventError
)

// String returns a human-readable event kind name.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventStateChanged:
		return "state_changed"
	case EventTextMessage:
		return "text_message"
	case EventBinaryMessage:
		return "binary_message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single connection lifecycle event. Only the fields relevant to
// Kind are populated.
type Event struct {
	Kind  EventKind
	State State  // EventStateChanged
	Text  string // EventTextMessage
	Data  []byte // EventBinaryMessage
	Err   error  // EventError
}
