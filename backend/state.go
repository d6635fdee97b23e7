package backend

// State is the readiness of a Backend.
type State int

const (
	// StateInitial is the state of a backend that has not connected
	// yet.
	StateInitial State = iota

	// StateConnecting means that the connection has been established
	// but no globals have arrived yet.
	StateConnecting

	// StateNegotiating means that globals are being bound.
	StateNegotiating

	// StateReady means that the compositor, a shell and the main
	// surface are available.
	StateReady

	// StateFailed is terminal. No more requests are sent.
	StateFailed

	// StateClosed is terminal. The backend has been closed by its
	// owner.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Terminal reports whether s is a state that can't be left.
func (s State) Terminal() bool {
	return (s == StateFailed) || (s == StateClosed)
}
