package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"voice-tutor/config"
	"voice-tutor/internal/application"
	"voice-tutor/internal/domain"
	"voice-tutor/internal/infra/audio"
	"voice-tutor/internal/infra/espeak"
	"voice-tutor/internal/infra/openai"
	"voice-tutor/internal/infra/pushover"
	"voice-tutor/internal/infra/recognizer"
	"voice-tutor/internal/infra/tutor"
)

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
}

// loadApp reads env and config files and builds the logger. The chat UI owns
// the terminal, so it logs to log.file instead of stderr.
func loadApp(cmd *cli.Command, logToFile bool) (*app, error) {
	root := cmd.Root()

	if err := config.LoadEnv(root.String("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(root.String("config"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || root.IsSet("config") {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	if level := root.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if logToFile {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		out = f
	}
	a.logger = setupLogger(cfg.Log, out)

	if cfg.OpenAI.APIKey == "" {
		a.logger.Warn("openai.api_key is empty, transcription will fail")
	}

	return a, nil
}

func (a *app) Close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) endpoint() string {
	if a.cfg.Tutor.Endpoint == "" {
		return tutor.DefaultEndpoint
	}
	return a.cfg.Tutor.Endpoint
}

func (a *app) voiceOptions() domain.VoiceOptions {
	return domain.VoiceOptions{Voice: a.cfg.Voice.Name, Pitch: a.cfg.Voice.Pitch}
}

func (a *app) newController() *application.Controller {
	rec := recognizer.New(
		a.newRecorder(),
		openai.NewWhisperClient(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.BaseURL, a.logger),
		a.logger,
	)

	return application.NewController(
		rec,
		rec,
		a.newSynthesizer(),
		tutor.NewClient(a.cfg.Tutor.Endpoint, a.logger),
		a.newAlerter(),
		application.Options{
			Locale:      a.cfg.Tutor.Locale,
			SettleDelay: a.cfg.Tutor.Settle(),
			Voice:       a.voiceOptions(),
		},
		a.logger,
	)
}

func (a *app) newRecorder() recognizer.Recorder {
	switch a.cfg.Speech.Recorder {
	case "file":
		return audio.NewFileRecorder(a.cfg.Speech.FileDir)
	default:
		return audio.NewMicrophoneRecorder(audio.MicrophoneConfig{
			SampleRate:  a.cfg.Speech.SampleRate,
			Silence:     a.cfg.Speech.SilenceWindow(),
			MaxDuration: a.cfg.Speech.MaxLength(),
		}, a.logger)
	}
}

func (a *app) newSynthesizer() application.SpeechSynthesizer {
	switch a.cfg.Voice.Engine {
	case "openai":
		return openai.NewSpeaker(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.BaseURL, audio.NewPlayer(), a.logger)
	case "none":
		return &application.NoopSynthesizer{}
	default:
		s := espeak.NewSynthesizer(a.cfg.Voice.Binary, a.logger)
		if err := s.Available(); err != nil {
			a.logger.Warn("speech output disabled", "error", err)
			return &application.NoopSynthesizer{}
		}
		return s
	}
}

func (a *app) newAlerter() application.Alerter {
	if !a.cfg.Pushover.Enabled {
		return &application.NoopAlerter{}
	}
	return pushover.NewClient(a.cfg.Pushover.Token, a.cfg.Pushover.UserKey)
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
