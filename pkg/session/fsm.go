package session

import "time"

// Status is the externally visible session state; the UI layer consumes it
// read-only.
type Status int32

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusListening
	StatusProcessing
	StatusSpeaking
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusConnecting:
		return "CONNECTING"
	case StatusListening:
		return "LISTENING"
	case StatusProcessing:
		return "PROCESSING"
	case StatusSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// StateChange represents one status transition.
type StateChange struct {
	From      Status
	To        Status
	Timestamp time.Time
	Reason    string
}

// StateListener observes session status changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// validTransitions defines the turn-taking cycle. Any state may fall back to
// idle on error or explicit stop; tts chunks may arrive while still
// listening, skipping processing entirely, and a turn with no audible reply
// returns from processing straight to listening.
var validTransitions = map[Status][]Status{
	StatusIdle:       {StatusConnecting},
	StatusConnecting: {StatusListening, StatusIdle},
	StatusListening:  {StatusProcessing, StatusSpeaking, StatusIdle},
	StatusProcessing: {StatusSpeaking, StatusListening, StatusIdle},
	StatusSpeaking:   {StatusListening, StatusIdle},
}

func transitionValid(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
