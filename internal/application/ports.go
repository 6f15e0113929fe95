package application

import (
	"context"
	"errors"

	"voice-tutor/internal/domain"
)

var ErrAlreadySubscribed = errors.New("recognizer already has an active subscriber")

// SpeechRecognizer pushes RecognitionEvents to a single subscriber.
type SpeechRecognizer interface {
	Subscribe() (Subscription, error)
	Start(ctx context.Context, session domain.SessionID, locale string)
	Stop(ctx context.Context)
}

type Subscription interface {
	Events() <-chan domain.RecognitionEvent
	Close()
}

type PermissionRequester interface {
	RequestMicrophone(ctx context.Context) error
}

type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string, opts domain.VoiceOptions) error
	Name() string
}

type TutorClient interface {
	Send(ctx context.Context, text string) (string, error)
}

type Alerter interface {
	Alert(ctx context.Context, alert domain.Alert) error
}

type NoopAlerter struct{}

func (n *NoopAlerter) Alert(_ context.Context, _ domain.Alert) error {
	return nil
}

// NoopSynthesizer is used when voice output is disabled.
type NoopSynthesizer struct{}

func (n *NoopSynthesizer) Name() string { return "none" }

func (n *NoopSynthesizer) Speak(_ context.Context, _ string, _ domain.VoiceOptions) error {
	return nil
}
