package segmenter

import (
	"errors"
	"fmt"
	"strings"

	"speechline/internal/lexicon"
	"speechline/internal/offset"
)

// ErrUnsupportedKind is returned for an unknown segmenter type.
var ErrUnsupportedKind = errors.New("unsupported segmenter type")

// Kind selects a segmentation strategy.
type Kind string

const (
	KindSilence        Kind = "silence"
	KindWordOverlap    Kind = "word_overlap"
	KindPhonemeOverlap Kind = "phoneme_overlap"
)

// Kinds lists the supported strategies in display order.
func Kinds() []Kind {
	return []Kind{KindSilence, KindWordOverlap, KindPhonemeOverlap}
}

// ParseKind validates a configured segmenter type.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range Kinds() {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, value)
}

// Segmenter groups offsets into ordered, non-overlapping segments. Every
// returned segment is a contiguous run of its input; nothing is reordered.
type Segmenter interface {
	Kind() Kind
	// NeedsGroundTruth reports whether ChunkOffsets consults groundTruth.
	NeedsGroundTruth() bool
	ChunkOffsets(offsets []offset.Offset, groundTruth []string) []offset.Segment
}

// Options configures New.
type Options struct {
	Kind            Kind
	SilenceDuration float64
	Lexicon         *lexicon.Lexicon
	PhonemeMatch    MatchMode
}

// New builds the segmenter selected by opts.Kind.
func New(opts Options) (Segmenter, error) {
	switch opts.Kind {
	case KindSilence:
		if opts.SilenceDuration < 0 {
			return nil, fmt.Errorf("silence segmenter: negative silence duration %v", opts.SilenceDuration)
		}
		return NewSilence(opts.SilenceDuration), nil
	case KindWordOverlap:
		return NewWordOverlap(), nil
	case KindPhonemeOverlap:
		if opts.Lexicon == nil {
			return nil, errors.New("phoneme overlap segmenter: lexicon required")
		}
		mode := opts.PhonemeMatch
		if mode == "" {
			mode = MatchSubstring
		}
		if _, err := ParseMatchMode(string(mode)); err != nil {
			return nil, err
		}
		return NewPhonemeOverlap(opts.Lexicon, mode), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, opts.Kind)
	}
}

// sliceRuns cuts items into segments at the half-open [start, end) ranges.
func sliceRuns(items []offset.Offset, runs [][2]int) []offset.Segment {
	segments := make([]offset.Segment, 0, len(runs))
	for _, r := range runs {
		if r[1] <= r[0] {
			continue
		}
		segments = append(segments, offset.Segment(items[r[0]:r[1]]).Clone())
	}
	return segments
}
