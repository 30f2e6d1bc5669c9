package audio

import "math"

// ExportSampleRate is the sample rate of every exported chunk.
const ExportSampleRate = 16000

// Waveform is a mono signal with samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// IsEmpty reports whether the waveform carries no samples.
func (w Waveform) IsEmpty() bool {
	return len(w.Samples) == 0 || w.SampleRate <= 0
}

// Duration returns the length of the waveform in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// DurationMillis returns the length of the waveform rounded to milliseconds.
func (w Waveform) DurationMillis() int64 {
	return int64(math.Round(w.Duration() * 1000))
}

// SliceMillis returns the samples between startMs and endMs. Bounds are
// clamped to the waveform and the result shares no storage with w.
func (w Waveform) SliceMillis(startMs, endMs float64) Waveform {
	out := Waveform{SampleRate: w.SampleRate}
	if w.IsEmpty() {
		return out
	}
	start := w.sampleIndex(startMs)
	end := w.sampleIndex(endMs)
	if end <= start {
		return out
	}
	out.Samples = append([]float64(nil), w.Samples[start:end]...)
	return out
}

// Slice returns the samples between start and end seconds.
func (w Waveform) Slice(start, end float64) Waveform {
	return w.SliceMillis(start*1000, end*1000)
}

func (w Waveform) sampleIndex(ms float64) int {
	idx := int(ms * float64(w.SampleRate) / 1000)
	if idx < 0 {
		return 0
	}
	if idx > len(w.Samples) {
		return len(w.Samples)
	}
	return idx
}

// Resample converts the waveform to rate using linear interpolation.
func (w Waveform) Resample(rate int) Waveform {
	if rate <= 0 || w.SampleRate == rate || w.IsEmpty() {
		return Waveform{Samples: append([]float64(nil), w.Samples...), SampleRate: nonZero(rate, w.SampleRate)}
	}
	ratio := float64(w.SampleRate) / float64(rate)
	n := int(math.Round(float64(len(w.Samples)) / ratio))
	out := make([]float64, n)
	last := len(w.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = w.Samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = w.Samples[j]*(1-frac) + w.Samples[j+1]*frac
	}
	return Waveform{Samples: out, SampleRate: rate}
}

// RMS returns the root-mean-square amplitude of the samples.
func (w Waveform) RMS() float64 {
	return rms(w.Samples)
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DBFS converts an RMS amplitude to decibels relative to full scale.
// Silence maps to -inf.
func DBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}

func nonZero(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
