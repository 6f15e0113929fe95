//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
)

// Player stub when portaudio is not available
type Player struct{}

func NewPlayer() *Player {
	return &Player{}
}

func (p *Player) Play(_ context.Context, _ []int16, _ int) error {
	return fmt.Errorf("audio playback not available: rebuild with -tags portaudio")
}
