package segmenter

import (
	"context"
	"fmt"

	"speechline/internal/media/audio"
	"speechline/internal/offset"
)

// NoiseClassifier scores audio clips. For every clip it returns the
// predictions whose score is at least threshold; an empty list means no label
// qualified. Implementations are called once per file with every empty span
// of that file.
type NoiseClassifier interface {
	Classify(ctx context.Context, clips []audio.Waveform, threshold float64) ([][]audio.Prediction, error)
}

// InsertEmptyTags returns copies of segments with an unclassified noise
// marker in every gap of at least minimumEmptyDuration seconds. A marker
// spans from the end of the offset before the gap to the start of the one
// after it.
func InsertEmptyTags(segments []offset.Segment, minimumEmptyDuration float64) []offset.Segment {
	out := make([]offset.Segment, len(segments))
	for i, segment := range segments {
		tagged := make(offset.Segment, 0, len(segment))
		for j, o := range segment {
			if j > 0 && offset.Gap(segment[j-1], o) >= minimumEmptyDuration {
				tagged = append(tagged, offset.Offset{
					Start: segment[j-1].End,
					End:   o.Start,
					Noise: offset.Empty(),
				})
			}
			tagged = append(tagged, o)
		}
		out[i] = tagged
	}
	return out
}

type markerPos struct{ segment, index int }

// ClassifyNoise relabels unclassified markers whose best qualifying
// prediction comes from classifier. All markers are classified in one batch.
// The returned map counts assigned labels.
func ClassifyNoise(ctx context.Context, segments []offset.Segment, wave audio.Waveform, classifier NoiseClassifier, threshold float64) ([]offset.Segment, map[string]int, error) {
	var positions []markerPos
	var clips []audio.Waveform
	for i, segment := range segments {
		for j, o := range segment {
			if o.Noise.Kind != offset.NoiseEmpty {
				continue
			}
			positions = append(positions, markerPos{i, j})
			clips = append(clips, wave.Slice(o.Start, o.End))
		}
	}
	if len(positions) == 0 || classifier == nil {
		return segments, nil, nil
	}

	predictions, err := classifier.Classify(ctx, clips, threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("classify noise: %w", err)
	}
	if len(predictions) != len(clips) {
		return nil, nil, fmt.Errorf("classify noise: got %d results for %d clips", len(predictions), len(clips))
	}

	out := make([]offset.Segment, len(segments))
	for i, segment := range segments {
		out[i] = segment.Clone()
	}
	labels := make(map[string]int)
	for k, preds := range predictions {
		best, ok := topPrediction(preds)
		if !ok {
			continue
		}
		pos := positions[k]
		out[pos.segment][pos.index].Noise = offset.Classified(best.Label)
		labels[best.Label]++
	}
	return out, labels, nil
}

// topPrediction returns the highest-scoring prediction; the first one wins
// ties.
func topPrediction(preds []audio.Prediction) (audio.Prediction, bool) {
	if len(preds) == 0 {
		return audio.Prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}
