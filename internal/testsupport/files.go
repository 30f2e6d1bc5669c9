package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"speechline/internal/media/audio"
	"speechline/internal/offset"
)

// Tone returns a 440 Hz sine of the given length and amplitude.
func Tone(rate int, seconds, amplitude float64) audio.Waveform {
	n := int(math.Round(float64(rate) * seconds))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return audio.Waveform{Samples: samples, SampleRate: rate}
}

// WriteWAV writes a tone of the requested length to path, creating parent
// directories.
func WriteWAV(t testing.TB, path string, seconds float64) audio.Waveform {
	t.Helper()

	w := Tone(audio.ExportSampleRate, seconds, 0.3)
	if err := audio.WriteWAV(path, w); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return w
}

// WriteOffsets writes offsets as the sibling JSON of audioPath.
func WriteOffsets(t testing.TB, audioPath string, offsets []offset.Offset, key offset.UnitKey) string {
	t.Helper()

	path := offset.SiblingJSONPath(audioPath)
	if err := offset.WriteJSON(path, offsets, key); err != nil {
		t.Fatalf("write offsets %s: %v", path, err)
	}
	return path
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
