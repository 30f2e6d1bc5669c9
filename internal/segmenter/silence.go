package segmenter

import "speechline/internal/offset"

// Silence cuts offsets wherever the silence between two consecutive offsets
// is at least Duration seconds.
type Silence struct {
	Duration float64
}

// NewSilence returns a silence segmenter cutting at gaps >= duration seconds.
func NewSilence(duration float64) *Silence {
	return &Silence{Duration: duration}
}

func (s *Silence) Kind() Kind { return KindSilence }

func (s *Silence) NeedsGroundTruth() bool { return false }

// ChunkOffsets ignores groundTruth. Gaps are rounded to milliseconds before
// comparison.
func (s *Silence) ChunkOffsets(offsets []offset.Offset, _ []string) []offset.Segment {
	if len(offsets) == 0 {
		return nil
	}
	cuts := []int{0}
	for i := 0; i+1 < len(offsets); i++ {
		if offset.Gap(offsets[i], offsets[i+1]) >= s.Duration {
			cuts = append(cuts, i+1)
		}
	}
	cuts = append(cuts, len(offsets))

	runs := make([][2]int, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		runs = append(runs, [2]int{cuts[i], cuts[i+1]})
	}
	return sliceRuns(offsets, runs)
}
