package espeak_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-tutor/internal/domain"
	"voice-tutor/internal/infra/espeak"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		pitch float64
		want  []string
	}{
		{name: "defaults", want: []string{"-v", "en", "-p", "50", "--", "hola"}},
		{name: "french higher", voice: "fr", pitch: 1.2, want: []string{"-v", "fr", "-p", "60", "--", "hola"}},
		{name: "clamped high", voice: "es", pitch: 3, want: []string{"-v", "es", "-p", "99", "--", "hola"}},
		{name: "low", voice: "de", pitch: 0.1, want: []string{"-v", "de", "-p", "5", "--", "hola"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := espeak.Args("hola", tt.voice, tt.pitch)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("args: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArgs_TextAfterTerminator(t *testing.T) {
	got := espeak.Args("-x looks like a flag", "en", 1)
	if got[len(got)-2] != "--" || got[len(got)-1] != "-x looks like a flag" {
		t.Errorf("text not protected from flag parsing: %v", got)
	}
}

func TestSynthesizer_RunsBinary(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "fake-espeak")
	body := "#!/bin/sh\necho \"$@\" > " + out + "\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	s := espeak.NewSynthesizer(script, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.Speak(context.Background(), "bien joué", domain.VoiceOptions{Voice: "fr", Pitch: 0.8}); err != nil {
		t.Fatalf("speak: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading args: %v", err)
	}
	if strings.TrimSpace(string(got)) != "-v fr -p 40 -- bien joué" {
		t.Errorf("args: got %q", got)
	}
}

func TestSynthesizer_MissingBinary(t *testing.T) {
	s := espeak.NewSynthesizer(filepath.Join(t.TempDir(), "nope"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.Available(); err == nil {
		t.Error("expected lookup error")
	}
	if err := s.Speak(context.Background(), "hi", domain.VoiceOptions{}); err == nil {
		t.Error("expected run error")
	}
}
