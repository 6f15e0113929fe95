package espeak

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"voice-tutor/internal/domain"
)

const (
	DefaultBinary = "espeak-ng"
	DefaultVoice  = "en"
)

// Synthesizer speaks text through the espeak-ng command line tool.
// Utterances are serialized so replies never overlap.
type Synthesizer struct {
	binary string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewSynthesizer(binary string, logger *slog.Logger) *Synthesizer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Synthesizer{binary: binary, logger: logger}
}

func (s *Synthesizer) Name() string {
	return "espeak"
}

// Available reports whether the binary can be found on PATH.
func (s *Synthesizer) Available() error {
	if _, err := exec.LookPath(s.binary); err != nil {
		return fmt.Errorf("looking up %s: %w", s.binary, err)
	}
	return nil
}

func (s *Synthesizer) Speak(ctx context.Context, text string, opts domain.VoiceOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.binary, Args(text, opts.Voice, opts.PitchOrDefault())...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", s.binary, err, strings.TrimSpace(string(out)))
	}

	s.logger.Debug("spoke reply", "voice", opts.Voice, "chars", len(text))
	return nil
}

// Args builds the espeak-ng argument list. pitch is a multiplier around 1.0;
// espeak's own scale runs from 0 to 99 with 50 as normal.
func Args(text, voice string, pitch float64) []string {
	if voice == "" {
		voice = DefaultVoice
	}
	if pitch <= 0 {
		pitch = 1
	}
	p := int(math.Round(50 * pitch))
	p = max(0, min(99, p))

	return []string{"-v", voice, "-p", strconv.Itoa(p), "--", text}
}
