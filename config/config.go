package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Tutor    TutorConfig    `yaml:"tutor"`
	Speech   SpeechConfig   `yaml:"speech"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Voice    VoiceConfig    `yaml:"voice"`
	Pushover PushoverConfig `yaml:"pushover"`
	Control  ControlConfig  `yaml:"control"`
	Log      LogConfig      `yaml:"log"`
}

// Endpoint is fixed for the life of the process; empty means the tutor
// client's built-in default.
type TutorConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Locale      string `yaml:"locale"`
	SettleDelay string `yaml:"settle_delay"`
}

type SpeechConfig struct {
	Recorder    string `yaml:"recorder"`
	FileDir     string `yaml:"file_dir"`
	SampleRate  int    `yaml:"sample_rate"`
	Silence     string `yaml:"silence"`
	MaxDuration string `yaml:"max_duration"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type VoiceConfig struct {
	Engine string  `yaml:"engine"`
	Name   string  `yaml:"name"`
	Pitch  float64 `yaml:"pitch"`
	Binary string  `yaml:"binary"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type ControlConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
	RateLimit int    `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; variables already set win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references in data before decoding it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Tutor.Locale == "" {
		c.Tutor.Locale = "en-US"
	}
	if c.Tutor.SettleDelay == "" {
		c.Tutor.SettleDelay = "500ms"
	}
	if c.Speech.Recorder == "" {
		c.Speech.Recorder = "microphone"
	}
	if c.Speech.FileDir == "" {
		c.Speech.FileDir = "./clips"
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 16000
	}
	if c.Speech.Silence == "" {
		c.Speech.Silence = "1.5s"
	}
	if c.Speech.MaxDuration == "" {
		c.Speech.MaxDuration = "30s"
	}
	if c.Voice.Engine == "" {
		c.Voice.Engine = "espeak"
	}
	if c.Voice.Name == "" {
		switch c.Voice.Engine {
		case "openai":
			c.Voice.Name = "alloy"
		default:
			c.Voice.Name = "en"
		}
	}
	if c.Voice.Pitch == 0 {
		c.Voice.Pitch = 1.0
	}
	if c.Voice.Binary == "" {
		c.Voice.Binary = "espeak-ng"
	}
	if c.Control.Addr == "" {
		c.Control.Addr = ":8080"
	}
	if c.Control.RateLimit == 0 {
		c.Control.RateLimit = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File == "" {
		c.Log.File = "tutor.log"
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Speech.Recorder {
	case "microphone", "file":
	default:
		errs = append(errs, fmt.Errorf("speech.recorder: unknown recorder %q", c.Speech.Recorder))
	}

	switch c.Voice.Engine {
	case "espeak", "openai", "none":
	default:
		errs = append(errs, fmt.Errorf("voice.engine: unknown engine %q", c.Voice.Engine))
	}

	if c.Voice.Pitch < 0 {
		errs = append(errs, fmt.Errorf("voice.pitch: must be positive, got %v", c.Voice.Pitch))
	}
	if c.Speech.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("speech.sample_rate: must be positive, got %d", c.Speech.SampleRate))
	}

	for name, value := range map[string]string{
		"tutor.settle_delay":  c.Tutor.SettleDelay,
		"speech.silence":      c.Speech.Silence,
		"speech.max_duration": c.Speech.MaxDuration,
	} {
		if d, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", name))
		}
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (t TutorConfig) Settle() time.Duration {
	return mustDuration(t.SettleDelay)
}

func (s SpeechConfig) SilenceWindow() time.Duration {
	return mustDuration(s.Silence)
}

func (s SpeechConfig) MaxLength() time.Duration {
	return mustDuration(s.MaxDuration)
}

// mustDuration is only used on validated values; a bad value reads as zero.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
