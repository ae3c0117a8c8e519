package models

// LoadingState drives the UI. Transitions:
//
//	Idle -> Searching -> {Success, Error}          (lookup)
//	Success -> Thinking -> Success                 (chat turn, even on failure)
//
// Error is reserved for lookup failure; a failed chat turn resolves back
// to Success with a degraded assistant message.
type LoadingState int

const (
	StateIdle LoadingState = iota
	StateSearching
	StateThinking
	StateSuccess
	StateError
)

func (s LoadingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateThinking:
		return "thinking"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
