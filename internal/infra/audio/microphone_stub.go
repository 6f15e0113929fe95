//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-tutor/internal/domain"
)

type MicrophoneConfig struct {
	SampleRate  int
	Silence     time.Duration
	MaxDuration time.Duration
}

// MicrophoneRecorder stub when portaudio is not available
type MicrophoneRecorder struct {
	logger *slog.Logger
}

func NewMicrophoneRecorder(_ MicrophoneConfig, logger *slog.Logger) *MicrophoneRecorder {
	return &MicrophoneRecorder{logger: logger}
}

func (m *MicrophoneRecorder) Name() string {
	return "microphone"
}

func (m *MicrophoneRecorder) Check(_ context.Context) error {
	return fmt.Errorf("%w: microphone not available, rebuild with -tags portaudio", domain.ErrPermissionDenied)
}

func (m *MicrophoneRecorder) Begin(_ context.Context, _ func()) error {
	return fmt.Errorf("microphone not available")
}

func (m *MicrophoneRecorder) End() (Clip, error) {
	return Clip{}, fmt.Errorf("microphone not available")
}
