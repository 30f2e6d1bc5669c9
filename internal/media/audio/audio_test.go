package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func sine(rate int, seconds, amplitude float64) Waveform {
	n := int(float64(rate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return Waveform{Samples: samples, SampleRate: rate}
}

func TestWaveformDurationAndSlice(t *testing.T) {
	w := Waveform{Samples: make([]float64, 16000), SampleRate: 16000}
	if w.Duration() != 1 {
		t.Fatalf("Duration = %v", w.Duration())
	}
	if w.DurationMillis() != 1000 {
		t.Fatalf("DurationMillis = %d", w.DurationMillis())
	}
	clip := w.SliceMillis(250, 500)
	if len(clip.Samples) != 4000 {
		t.Fatalf("clip samples = %d", len(clip.Samples))
	}
	if got := w.Slice(0.9, 2.0); len(got.Samples) != 1600 {
		t.Fatalf("clamped slice samples = %d", len(got.Samples))
	}
	if got := w.SliceMillis(600, 300); !got.IsEmpty() {
		t.Fatal("inverted slice should be empty")
	}
}

func TestResample(t *testing.T) {
	w := Waveform{Samples: []float64{0, 1, 0, -1}, SampleRate: 4}
	up := w.Resample(8)
	if up.SampleRate != 8 || len(up.Samples) != 8 {
		t.Fatalf("resample = %d samples @ %d", len(up.Samples), up.SampleRate)
	}
	if math.Abs(up.Samples[1]-0.5) > 1e-9 {
		t.Fatalf("interpolated sample = %v", up.Samples[1])
	}
	same := w.Resample(4)
	same.Samples[0] = 9
	if w.Samples[0] != 0 {
		t.Fatal("Resample must not share storage")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chunk.wav")
	src := sine(ExportSampleRate, 0.5, 0.5)
	if err := WriteWAV(path, src); err != nil {
		t.Fatal(err)
	}
	got, err := LoadWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SampleRate != ExportSampleRate {
		t.Fatalf("sample rate = %d", got.SampleRate)
	}
	if len(got.Samples) != len(src.Samples) {
		t.Fatalf("samples = %d, want %d", len(got.Samples), len(src.Samples))
	}
	for i := range src.Samples {
		if math.Abs(got.Samples[i]-src.Samples[i]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], src.Samples[i])
		}
	}
}

func TestWriteWAVResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunk.wav")
	if err := WriteWAV(path, sine(8000, 1, 0.2)); err != nil {
		t.Fatal(err)
	}
	got, err := LoadWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SampleRate != ExportSampleRate || len(got.Samples) != ExportSampleRate {
		t.Fatalf("got %d samples @ %d", len(got.Samples), got.SampleRate)
	}
}

// writeNativeWAV writes 16-bit mono PCM at rate without resampling.
func writeNativeWAV(t *testing.T, path string, w Waveform) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		data[i] = int(math.Round(s * math.MaxInt16))
	}
	enc := wav.NewEncoder(f, w.SampleRate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeFFmpegStub installs a script that emits two 0.5 samples of s16le PCM
// when asked for 16 kHz output and fails otherwise.
func writeFFmpegStub(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\ncase \"$*\" in\n*\"-ar 16000\"*) printf '\\000\\100\\000\\100' ;;\n*) exit 1 ;;\nesac\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeWAVSampleRates(t *testing.T) {
	dir := t.TempDir()
	stub := writeFFmpegStub(t)
	missing := filepath.Join(dir, "missing", "ffmpeg")

	tests := []struct {
		name        string
		rate        int
		ffmpeg      string
		wantSamples int
		wantErr     string
	}{
		{"native rate skips ffmpeg", ExportSampleRate, missing, ExportSampleRate / 10, ""},
		{"other rate resampled by ffmpeg", 44100, stub, 2, ""},
		{"other rate without ffmpeg", 8000, missing, 0, "resample 8000 Hz wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".wav")
			writeNativeWAV(t, path, sine(tt.rate, 0.1, 0.5))

			got, err := Decode(context.Background(), path, DecodeOptions{FFmpegBinary: tt.ffmpeg})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got.SampleRate != ExportSampleRate || len(got.Samples) != tt.wantSamples {
				t.Fatalf("got %d samples @ %d, want %d @ %d", len(got.Samples), got.SampleRate, tt.wantSamples, ExportSampleRate)
			}
		})
	}
}

func TestLoadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWAV(path); !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestFromPCM16(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data, uint16(int16(16384)))
	v := int16(-32768)
	binary.LittleEndian.PutUint16(data[2:], uint16(v))
	w := FromPCM16(data, 16000)
	if len(w.Samples) != 2 || w.Samples[0] != 0.5 || w.Samples[1] != -1 {
		t.Fatalf("FromPCM16 = %#v", w.Samples)
	}
}

func TestEnergyClassifier(t *testing.T) {
	c := NewEnergyClassifier(-40)
	clips := []Waveform{
		{Samples: make([]float64, 8000), SampleRate: 16000},
		sine(16000, 0.5, 0.5),
		{},
	}
	preds, err := c.Classify(context.Background(), clips, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 prediction lists, got %d", len(preds))
	}
	if len(preds[0]) != 1 || preds[0][0].Label != LabelSilence || preds[0][0].Score != 1 {
		t.Fatalf("silent clip predictions = %#v", preds[0])
	}
	if len(preds[1]) != 1 || preds[1][0].Label != LabelNoise {
		t.Fatalf("loud clip predictions = %#v", preds[1])
	}
	if len(preds[2]) != 0 {
		t.Fatalf("empty clip predictions = %#v", preds[2])
	}
}

func TestEnergyClassifierHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEnergyClassifier(-40).Classify(ctx, []Waveform{sine(16000, 0.1, 0.5)}, 0.5); err == nil {
		t.Fatal("expected context error")
	}
}
