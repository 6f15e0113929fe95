package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-tutor/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte(""))
	require.NoError(t, err)

	assert.Empty(t, cfg.Tutor.Endpoint)
	assert.Equal(t, "en-US", cfg.Tutor.Locale)
	assert.Equal(t, 500*time.Millisecond, cfg.Tutor.Settle())
	assert.Equal(t, "microphone", cfg.Speech.Recorder)
	assert.Equal(t, 16000, cfg.Speech.SampleRate)
	assert.Equal(t, 1500*time.Millisecond, cfg.Speech.SilenceWindow())
	assert.Equal(t, 30*time.Second, cfg.Speech.MaxLength())
	assert.Equal(t, "espeak", cfg.Voice.Engine)
	assert.Equal(t, "en", cfg.Voice.Name)
	assert.Equal(t, 1.0, cfg.Voice.Pitch)
	assert.Equal(t, 30, cfg.Control.RateLimit)
	assert.Equal(t, "tutor.log", cfg.Log.File)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TUTOR_TEST_KEY", "sk-test")
	t.Setenv("TUTOR_TEST_ENDPOINT", "https://tutor.example.com/chat")

	cfg, err := config.Parse([]byte(`
tutor:
  endpoint: ${TUTOR_TEST_ENDPOINT}
  locale: fr-FR
  settle_delay: 750ms
openai:
  api_key: ${TUTOR_TEST_KEY}
voice:
  engine: openai
  pitch: 1.2
`))
	require.NoError(t, err)

	assert.Equal(t, "https://tutor.example.com/chat", cfg.Tutor.Endpoint)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 750*time.Millisecond, cfg.Tutor.Settle())
	assert.Equal(t, "alloy", cfg.Voice.Name, "openai engine gets an openai voice by default")
	assert.Equal(t, 1.2, cfg.Voice.Pitch)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown recorder", yaml: "speech:\n  recorder: telepathy\n"},
		{name: "unknown engine", yaml: "voice:\n  engine: kazoo\n"},
		{name: "negative pitch", yaml: "voice:\n  pitch: -1\n"},
		{name: "bad duration", yaml: "tutor:\n  settle_delay: soon\n"},
		{name: "negative duration", yaml: "speech:\n  silence: -2s\n"},
		{name: "bad log format", yaml: "log:\n  format: xml\n"},
		{name: "not yaml", yaml: "tutor: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TUTOR_TEST_FROM_DOTENV=yes\n"), 0600))
	t.Setenv("TUTOR_TEST_FROM_DOTENV", "")
	os.Unsetenv("TUTOR_TEST_FROM_DOTENV")

	require.NoError(t, config.LoadEnv(filepath.Join(dir, "absent.env"), path))
	assert.Equal(t, "yes", os.Getenv("TUTOR_TEST_FROM_DOTENV"))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}
