package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voice-tutor/internal/infra/audio"
)

func TestFileRecorder_ReplaysClipsInOrder(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "b.wav"), []byte("second"), 0644)
	os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("first"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)

	rec := audio.NewFileRecorder(dir)
	ctx := context.Background()

	if err := rec.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}

	for _, want := range []string{"first", "second"} {
		if err := rec.Begin(ctx, func() {}); err != nil {
			t.Fatalf("begin: %v", err)
		}
		clip, err := rec.End()
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		if string(clip.Data) != want {
			t.Errorf("clip: got %q, want %q", clip.Data, want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "a.mp3.processed")); err != nil {
		t.Errorf("clip not marked processed: %v", err)
	}

	if err := rec.Begin(ctx, func() {}); err == nil {
		t.Error("expected error with no clips left")
	}
}

func TestFileRecorder_EndWithoutBegin(t *testing.T) {
	rec := audio.NewFileRecorder(t.TempDir())
	if _, err := rec.End(); err == nil {
		t.Error("expected error")
	}
}
