package status

import "github.com/akrylov/wsproxy/internal/socket"

// Status is the coarse caller-visible connection status.
type Status uint8

const (
	Connecting Status = iota
	Open
	Closing
	Closed
	Error
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// statusForState folds a native socket state into a Status. The mapping is
// total: states this package does not know about fold into Connecting.
func statusForState(s socket.State) Status {
	switch s {
	case socket.StateHostLookup, socket.StateConnecting, socket.StateBound:
		return Connecting
	case socket.StateUnconnected:
		return Closed
	case socket.StateConnected:
		return Open
	case socket.StateClosing:
		return Closing
	default:
		return Connecting
	}
}
