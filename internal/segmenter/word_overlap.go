package segmenter

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"speechline/internal/offset"
)

// WordOverlap keeps the maximal runs of predicted words that exactly match
// the ground truth.
type WordOverlap struct{}

// NewWordOverlap returns a word-overlap segmenter.
func NewWordOverlap() *WordOverlap { return &WordOverlap{} }

func (w *WordOverlap) Kind() Kind { return KindWordOverlap }

func (w *WordOverlap) NeedsGroundTruth() bool { return true }

// ChunkOffsets diffs lowercased predicted units against lowercased ground
// truth and returns one segment per equal opcode.
func (w *WordOverlap) ChunkOffsets(offsets []offset.Offset, groundTruth []string) []offset.Segment {
	if len(offsets) == 0 || len(groundTruth) == 0 {
		return nil
	}
	predicted := make([]string, len(offsets))
	for i, o := range offsets {
		predicted[i] = normalizeToken(o.Text())
	}
	truth := make([]string, len(groundTruth))
	for i, g := range groundTruth {
		truth[i] = normalizeToken(g)
	}

	matcher := difflib.NewMatcher(predicted, truth)
	var runs [][2]int
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			runs = append(runs, [2]int{op.I1, op.I2})
		}
	}
	return sliceRuns(offsets, runs)
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
