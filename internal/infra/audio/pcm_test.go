package audio_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"voice-tutor/internal/infra/audio"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 1200, -1200, 32767, -32768, 7}

	data := audio.EncodeWAV(samples, 24000)
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header")
	}
	if len(data) != 44+len(samples)*2 {
		t.Errorf("length: got %d, want %d", len(data), 44+len(samples)*2)
	}

	got, rate, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if rate != 24000 {
		t.Errorf("sample rate: got %d, want 24000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("samples: got %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestDecodeWAV_StreamedPlaceholderSize(t *testing.T) {
	data := audio.EncodeWAV([]int16{10, 20, 30}, 16000)
	// streamed responses announce 0xFFFFFFFF for the data chunk
	binary.LittleEndian.PutUint32(data[40:44], 0xFFFFFFFF)

	got, _, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got) != 3 || got[2] != 30 {
		t.Errorf("samples: got %v", got)
	}
}

func TestDecodeWAV_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not riff", data: []byte("ID3\x03\x00\x00\x00\x00\x00\x00\x00\x00")},
		{name: "no data chunk", data: audio.EncodeWAV(nil, 16000)[:36]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := audio.DecodeWAV(tt.data); !errors.Is(err, audio.ErrNotWAV) {
				t.Errorf("got %v, want ErrNotWAV", err)
			}
		})
	}
}

func TestIsSilent(t *testing.T) {
	if !audio.IsSilent([]int16{0, 100, -100}, 500) {
		t.Error("quiet buffer should be silent")
	}
	if audio.IsSilent([]int16{0, 100, -900}, 500) {
		t.Error("loud sample should break silence")
	}
}
