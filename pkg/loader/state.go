// Package loader initializes slow models in the background, exactly once
// each, and exposes their readiness without ever blocking the caller.
package loader

// State is the readiness of one model.
//
// Transitions are NotStarted -> Loading -> Ready or Failed. Failed is
// terminal for the life of the process.
type State int32

const (
	NotStarted State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether the state can no longer change.
func (s State) Settled() bool {
	return s == Ready || s == Failed
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
