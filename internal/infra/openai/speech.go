package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-tutor/internal/domain"
	"voice-tutor/internal/infra/audio"
)

const DefaultVoice = "alloy"

type Player interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

// Speaker reads replies aloud with the OpenAI speech API. Pitch is applied by
// resampling on playback.
type Speaker struct {
	client *goopenai.Client
	player Player
	logger *slog.Logger
}

func NewSpeaker(apiKey, baseURL string, player Player, logger *slog.Logger) *Speaker {
	return &Speaker{
		client: newClient(apiKey, baseURL),
		player: player,
		logger: logger,
	}
}

func (s *Speaker) Name() string {
	return "openai"
}

func (s *Speaker) Speak(ctx context.Context, text string, opts domain.VoiceOptions) error {
	voice := opts.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.TTSModel1,
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatWav,
	})
	if err != nil {
		return fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("reading speech: %w", err)
	}

	samples, rate, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decoding speech: %w", err)
	}

	s.logger.Debug("speaking reply", "voice", voice, "pitch", opts.PitchOrDefault(), "samples", len(samples))
	return s.player.Play(ctx, samples, PlaybackRate(rate, opts.PitchOrDefault()))
}

// PlaybackRate scales the native sample rate by the pitch multiplier.
func PlaybackRate(rate int, pitch float64) int {
	return int(math.Round(float64(rate) * pitch))
}
