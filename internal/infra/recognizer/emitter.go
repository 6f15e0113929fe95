package recognizer

import (
	"log/slog"
	"sync"

	"voice-tutor/internal/application"
	"voice-tutor/internal/domain"
)

const eventBuffer = 64

// Emitter fans recognition events out to at most one subscriber.
type Emitter struct {
	logger *slog.Logger

	mu  sync.Mutex
	sub *subscription
}

func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{logger: logger}
}

type subscription struct {
	emitter *Emitter
	events  chan domain.RecognitionEvent
	once    sync.Once
}

func (s *subscription) Events() <-chan domain.RecognitionEvent {
	return s.events
}

// Close deregisters the subscriber. Safe to call more than once.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.emitter.mu.Lock()
		defer s.emitter.mu.Unlock()
		if s.emitter.sub == s {
			s.emitter.sub = nil
		}
		close(s.events)
	})
}

func (e *Emitter) Subscribe() (application.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sub != nil {
		return nil, application.ErrAlreadySubscribed
	}
	e.sub = &subscription{emitter: e, events: make(chan domain.RecognitionEvent, eventBuffer)}
	return e.sub, nil
}

// Emit delivers ev to the current subscriber, if any. It never blocks.
func (e *Emitter) Emit(ev domain.RecognitionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sub == nil {
		return
	}
	select {
	case e.sub.events <- ev:
	default:
		e.logger.Warn("recognition event dropped, subscriber not keeping up",
			"session", ev.Session, "kind", ev.Kind)
	}
}
