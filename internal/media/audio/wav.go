package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV reports a file that is not a decodable RIFF/WAVE stream.
var ErrInvalidWAV = errors.New("invalid wav file")

// ReadWAV decodes a PCM WAV stream, downmixing to mono.
func ReadWAV(r io.ReadSeeker) (Waveform, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return Waveform{}, ErrInvalidWAV
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("read pcm buffer: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return Waveform{}, ErrInvalidWAV
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	scale, offset := pcmScale(bitDepth)

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = clamp(sum / float64(channels))
	}
	return Waveform{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// LoadWAV decodes the WAV file at path.
func LoadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Close()
	w, err := ReadWAV(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// EncodeWAV writes w as mono 16-bit PCM at ExportSampleRate.
func EncodeWAV(ws io.WriteSeeker, w Waveform) error {
	resampled := w.Resample(ExportSampleRate)
	data := make([]int, len(resampled.Samples))
	for i, s := range resampled.Samples {
		data[i] = int(math.Round(clamp(s) * math.MaxInt16))
	}
	enc := wav.NewEncoder(ws, ExportSampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: ExportSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// WriteWAV writes w to path as a mono 16-bit PCM 16 kHz WAV file. The file is
// written next to its destination and renamed into place.
func WriteWAV(path string, w Waveform) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := EncodeWAV(tmp, w); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// pcmScale returns the divisor and zero offset for integer PCM samples of the
// given bit depth. 8-bit WAV is unsigned.
func pcmScale(bitDepth int) (float64, float64) {
	switch bitDepth {
	case 8:
		return 128, 128
	case 24:
		return 1 << 23, 0
	case 32:
		return 1 << 31, 0
	default:
		return 1 << 15, 0
	}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
