package engine

// State is the lifecycle state of a conversation engine.
type State int

const (
	// StateInit is the state before the backend probe and seeding.
	StateInit State = iota
	// StateRunning means rounds are being executed.
	StateRunning
	// StatePaused means the user paused the conversation at an agent boundary.
	StatePaused
	// StateIdleWait means no message arrived since the last round.
	StateIdleWait
	// StateStopped is terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateIdleWait:
		return "IDLE_WAIT"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
