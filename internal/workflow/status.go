package workflow

// Status is the lifecycle of one submit attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// MarshalText lets Status appear by name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransitionTo reports whether the workflow may move from s to target.
//
// Valid transitions:
// - idle -> pending (valid submit)
// - pending -> succeeded (backend accepted)
// - pending -> idle (backend failed or the screen was torn down)
//
// Succeeded is terminal: the screen navigates away.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusIdle:
		return target == StatusPending
	case StatusPending:
		return target == StatusSucceeded || target == StatusIdle
	}
	return false
}
