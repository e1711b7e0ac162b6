package socket

// State is the fine-grained native connection state.
type State uint8

const (
	StateUnconnected State = iota
	StateHostLookup
	StateConnecting
	StateConnected
	StateBound
	StateClosing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateHostLookup:
		return "host_lookup"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBound:
		return "bound"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// WebSocket close codes used when no caller-supplied code is available.
const (
	CloseNormalClosure = 1000
	CloseGoingAway     = 1001
)
