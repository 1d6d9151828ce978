package editor

import "github.com/marqtools/flowbuilder/pkg/schema"

// State is the interaction state of an editor session.
type State string

const (
	// StateIdle: no gesture in progress.
	StateIdle State = "idle"
	// StateConnecting: a connection drag is live from a node's output handle.
	StateConnecting State = "connecting"
	// StateConfiguring: a node's configuration surface is open.
	StateConfiguring State = "configuring"
)

// ValidTransitions defines the allowed session state transitions.
var ValidTransitions = map[State][]State{
	StateIdle:        {StateConnecting, StateConfiguring},
	StateConnecting:  {StateIdle},
	StateConfiguring: {StateIdle},
}

func isValidTransition(from, to State) bool {
	for _, a := range ValidTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// transition validates and applies a session state change.
// Callers must hold s.mu.
func (s *Session) transition(to State) error {
	if !isValidTransition(s.state, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid editor transition: %s -> %s", s.state, to).
			WithDetails(map[string]any{"session_id": s.id, "from": string(s.state), "to": string(to)})
	}
	s.state = to
	return nil
}
