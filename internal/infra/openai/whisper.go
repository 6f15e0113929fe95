package openai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-tutor/internal/infra/audio"
)

const DefaultBaseURL = "https://api.openai.com/v1"

func newClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return goopenai.NewClientWithConfig(cfg)
}

// WhisperClient transcribes recorded clips with the Whisper API.
type WhisperClient struct {
	client *goopenai.Client
	logger *slog.Logger
}

func NewWhisperClient(apiKey, baseURL string, logger *slog.Logger) *WhisperClient {
	return &WhisperClient{
		client: newClient(apiKey, baseURL),
		logger: logger,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, clip audio.Clip, language string) (string, error) {
	name := clip.Name
	if name == "" {
		name = "audio.wav"
	}

	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    goopenai.Whisper1,
		FilePath: name,
		Reader:   bytes.NewReader(clip.Data),
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}

	c.logger.Debug("transcribed clip", "bytes", len(clip.Data), "language", language)
	return resp.Text, nil
}
