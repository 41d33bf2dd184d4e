package session

// State is the lifecycle position of a Session.
//
//	CONNECTING -> SUBSCRIBED -> LIVE <-> IDLE -> CLOSING -> TERMINATED
//
// A failed connect goes straight to TERMINATED.
type State int

const (
	Connecting State = iota
	Subscribed
	Live
	// Idle is LIVE after a wait that timed out without data.
	Idle
	Closing
	Terminated
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Subscribed:
		return "SUBSCRIBED"
	case Live:
		return "LIVE"
	case Idle:
		return "IDLE"
	case Closing:
		return "CLOSING"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}
