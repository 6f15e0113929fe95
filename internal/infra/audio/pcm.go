package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	DefaultSampleRate = 16000
	framesPerBuffer   = 1024
)

var ErrNotWAV = errors.New("not a PCM WAV stream")

// Clip is one recorded utterance. Name carries the extension the
// transcriber uses to detect the container format.
type Clip struct {
	Name string
	Data []byte
}

// EncodeWAV frames 16-bit mono samples as a RIFF/WAVE file.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// DecodeWAV returns the 16-bit PCM samples of a WAV stream, downmixed to mono.
// Streamed WAV output may carry a placeholder data size; the remainder of the
// buffer is used in that case.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		channels   int
		sampleRate int
		bits       int
		haveFormat bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			if format != 1 || bits != 16 || channels < 1 {
				return nil, 0, fmt.Errorf("%w: format %d, %d bits, %d channels", ErrNotWAV, format, bits, channels)
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, 0, fmt.Errorf("%w: data before fmt", ErrNotWAV)
			}
			frames := size / (2 * channels)
			samples := make([]int16, frames)
			for i := range samples {
				var sum int
				for ch := 0; ch < channels; ch++ {
					off := body + (i*channels+ch)*2
					sum += int(int16(binary.LittleEndian.Uint16(data[off:])))
				}
				samples[i] = int16(sum / channels)
			}
			return samples, sampleRate, nil
		}

		pos = body + size + size%2
	}

	return nil, 0, fmt.Errorf("%w: no data chunk", ErrNotWAV)
}

// IsSilent reports whether every sample stays within ±threshold.
func IsSilent(samples []int16, threshold int16) bool {
	for _, s := range samples {
		if s > threshold || s < -threshold {
			return false
		}
	}
	return true
}
