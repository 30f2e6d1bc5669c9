package audio

import (
	"context"
	"math"
)

// Noise labels emitted by EnergyClassifier.
const (
	LabelSilence = "silence"
	LabelNoise   = "noise"
)

const defaultFrameMs = 20

// Prediction is one label score produced by a noise classifier.
type Prediction struct {
	Label string
	Score float64
}

// EnergyClassifier labels clips by the share of frames whose RMS energy is
// above or below FloorDB. It needs no model and serves as the default noise
// classifier.
type EnergyClassifier struct {
	FloorDB float64
	FrameMs int
}

// NewEnergyClassifier returns a classifier with the given silence floor in dBFS.
func NewEnergyClassifier(floorDB float64) *EnergyClassifier {
	return &EnergyClassifier{FloorDB: floorDB, FrameMs: defaultFrameMs}
}

// Classify scores each clip and returns, per clip, the predictions whose score
// is at least threshold.
func (c *EnergyClassifier) Classify(ctx context.Context, clips []Waveform, threshold float64) ([][]Prediction, error) {
	out := make([][]Prediction, len(clips))
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loud, total := c.frames(clip)
		if total == 0 {
			continue
		}
		noiseScore := float64(loud) / float64(total)
		candidates := []Prediction{
			{Label: LabelSilence, Score: 1 - noiseScore},
			{Label: LabelNoise, Score: noiseScore},
		}
		for _, p := range candidates {
			if p.Score >= threshold {
				out[i] = append(out[i], p)
			}
		}
	}
	return out, nil
}

// frames counts frames above the floor. Clips shorter than one frame are
// treated as a single frame.
func (c *EnergyClassifier) frames(clip Waveform) (int, int) {
	if clip.IsEmpty() {
		return 0, 0
	}
	frameMs := c.FrameMs
	if frameMs <= 0 {
		frameMs = defaultFrameMs
	}
	samplesPerFrame := clip.SampleRate * frameMs / 1000
	if samplesPerFrame <= 0 || samplesPerFrame > len(clip.Samples) {
		samplesPerFrame = len(clip.Samples)
	}
	loud, total := 0, 0
	for offset := 0; offset+samplesPerFrame <= len(clip.Samples); offset += samplesPerFrame {
		level := DBFS(rms(clip.Samples[offset : offset+samplesPerFrame]))
		if !math.IsInf(level, -1) && level >= c.FloorDB {
			loud++
		}
		total++
	}
	return loud, total
}
