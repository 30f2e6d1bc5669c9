package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"speechline/internal/media/ffprobe"
)

// ErrNoAudio reports an input that carries no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// DecodeOptions configures the external decoders used for non-WAV inputs.
type DecodeOptions struct {
	FFmpegBinary  string
	FFprobeBinary string
}

// Decode loads path into a mono waveform. 16 kHz WAV files are decoded
// in-process. WAV files at other rates are resampled by ffmpeg, whose filter
// band-limits the signal, and other containers are converted by ffmpeg to
// 16 kHz mono PCM.
func Decode(ctx context.Context, path string, opts DecodeOptions) (Waveform, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		w, err := LoadWAV(path)
		switch {
		case err == nil && (w.SampleRate == ExportSampleRate || w.IsEmpty()):
			return w, nil
		case err == nil:
			pcm, err := extractPCM(ctx, opts.FFmpegBinary, path)
			if err != nil {
				return Waveform{}, fmt.Errorf("resample %d Hz wav: %w", w.SampleRate, err)
			}
			return FromPCM16(pcm, ExportSampleRate), nil
		case !errors.Is(err, ErrInvalidWAV):
			return Waveform{}, err
		}
		// Mislabelled containers fall through to ffmpeg.
	}

	info, err := ffprobe.Inspect(ctx, opts.FFprobeBinary, path)
	if err != nil {
		return Waveform{}, err
	}
	if !info.HasAudio() {
		return Waveform{}, fmt.Errorf("%s: %w", path, ErrNoAudio)
	}
	pcm, err := extractPCM(ctx, opts.FFmpegBinary, path)
	if err != nil {
		return Waveform{}, err
	}
	return FromPCM16(pcm, ExportSampleRate), nil
}

// FromPCM16 converts little-endian signed 16-bit mono PCM to a waveform.
func FromPCM16(data []byte, sampleRate int) Waveform {
	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float64(v) / (1 << 15)
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

func extractPCM(ctx context.Context, ffmpegBinary, path string) ([]byte, error) {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(ExportSampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg pcm extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
