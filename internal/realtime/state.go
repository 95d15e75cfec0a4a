package realtime

// State is the lifecycle state of the push connection.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
