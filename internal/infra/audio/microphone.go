//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voice-tutor/internal/domain"
)

const silenceThreshold = int16(500)

type MicrophoneConfig struct {
	SampleRate  int
	Silence     time.Duration
	MaxDuration time.Duration
}

// MicrophoneRecorder captures 16-bit mono audio from the default input device.
// It ends a session by itself after trailing silence or at MaxDuration.
type MicrophoneRecorder struct {
	cfg    MicrophoneConfig
	logger *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	samples []int16
	stop    chan struct{}
	done    chan struct{}
}

func NewMicrophoneRecorder(cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneRecorder {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &MicrophoneRecorder{cfg: cfg, logger: logger}
}

func (m *MicrophoneRecorder) Name() string {
	return "microphone"
}

func (m *MicrophoneRecorder) Check(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing portaudio: %v", domain.ErrPermissionDenied, err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("%w: no input device: %v", domain.ErrPermissionDenied, err)
	}
	m.logger.Info("microphone available", "device", dev.Name)
	return nil
}

func (m *MicrophoneRecorder) Begin(_ context.Context, autoStop func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return fmt.Errorf("microphone already recording")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.samples = make([]int16, 0, m.cfg.SampleRate*5)
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.capture(stream, buffer, m.stop, m.done, autoStop)

	m.logger.Debug("microphone recording", "sampleRate", m.cfg.SampleRate)
	return nil
}

func (m *MicrophoneRecorder) capture(stream *portaudio.Stream, buffer []int16, stop, done chan struct{}, autoStop func()) {
	defer close(done)

	silentFrames := 0
	maxSilent := int(m.cfg.Silence.Seconds() * float64(m.cfg.SampleRate))
	maxFrames := int(m.cfg.MaxDuration.Seconds() * float64(m.cfg.SampleRate))

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			m.logger.Warn("reading from stream", "error", err)
			go autoStop()
			return
		}

		m.mu.Lock()
		m.samples = append(m.samples, buffer...)
		captured := len(m.samples)
		m.mu.Unlock()

		if IsSilent(buffer, silenceThreshold) {
			silentFrames += len(buffer)
		} else {
			silentFrames = 0
		}

		// autoStop ends up in End, which waits for done: call it off this goroutine.
		if maxSilent > 0 && silentFrames > maxSilent && captured > m.cfg.SampleRate {
			m.logger.Debug("trailing silence, ending session")
			go autoStop()
			return
		}
		if maxFrames > 0 && captured >= maxFrames {
			m.logger.Debug("max duration reached, ending session")
			go autoStop()
			return
		}
	}
}

func (m *MicrophoneRecorder) End() (Clip, error) {
	m.mu.Lock()
	stream, stop, done := m.stream, m.stop, m.done
	m.stream = nil
	m.mu.Unlock()

	if stream == nil {
		return Clip{}, fmt.Errorf("microphone: not recording")
	}

	close(stop)
	<-done

	stream.Stop()
	stream.Close()
	portaudio.Terminate()

	m.mu.Lock()
	samples := m.samples
	m.samples = nil
	m.mu.Unlock()

	return Clip{Name: "utterance.wav", Data: EncodeWAV(samples, m.cfg.SampleRate)}, nil
}
