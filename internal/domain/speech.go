package domain

// SessionID identifies one press-to-release cycle.
type SessionID uint64

type EventKind string

const (
	EventStarted EventKind = "started"
	EventResult  EventKind = "result"
	EventEnded   EventKind = "ended"
	EventError   EventKind = "error"
)

type RecognitionEvent struct {
	Session SessionID
	Kind    EventKind
	Text    string
	Err     error
}

// VoiceOptions select the voice and pitch for a single utterance.
// Pitch is a multiplier around 1.0; zero is treated as 1.0.
type VoiceOptions struct {
	Voice string
	Pitch float64
}

func (o VoiceOptions) PitchOrDefault() float64 {
	if o.Pitch <= 0 {
		return 1.0
	}
	return o.Pitch
}
