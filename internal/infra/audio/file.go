package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileRecorder replays pre-recorded clips: every session takes the next
// unprocessed file from dir and marks it processed.
type FileRecorder struct {
	dir string

	mu      sync.Mutex
	current *Clip
}

func NewFileRecorder(dir string) *FileRecorder {
	return &FileRecorder{dir: dir}
}

func (f *FileRecorder) Name() string {
	return "file"
}

func (f *FileRecorder) Check(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating clip dir: %w", err)
	}
	return nil
}

func (f *FileRecorder) Begin(_ context.Context, _ func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clip, err := f.nextClip()
	if err != nil {
		return err
	}
	if clip == nil {
		return fmt.Errorf("no clip waiting in %s", f.dir)
	}
	f.current = clip
	return nil
}

func (f *FileRecorder) End() (Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current == nil {
		return Clip{}, fmt.Errorf("file recorder: not recording")
	}
	clip := *f.current
	f.current = nil
	return clip, nil
}

func (f *FileRecorder) nextClip() (*Clip, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".wav" && ext != ".mp3" && ext != ".m4a" && ext != ".webm" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		if err := os.Rename(path, path+".processed"); err != nil {
			return nil, fmt.Errorf("marking %s processed: %w", path, err)
		}

		return &Clip{Name: entry.Name(), Data: data}, nil
	}

	return nil, nil
}
