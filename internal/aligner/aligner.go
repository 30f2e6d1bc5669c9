package aligner

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"speechline/internal/g2p"
	"speechline/internal/offset"
	"speechline/internal/textutil"
)

// ErrCandidateLimit is returned with the unchanged input when the partition
// search would exceed MaxCandidates.
var ErrCandidateLimit = errors.New("aligner: candidate limit exceeded")

const (
	DefaultMaxCandidates  = 200000
	DefaultStdevTolerance = 1.0
)

// Options configures a PunctuationForcedAligner.
type Options struct {
	// Punctuations defaults to g2p.DefaultPunctuations.
	Punctuations []string
	// MaxCandidates bounds the number of partitions enumerated per call.
	MaxCandidates int
	// StdevTolerance is the accepted distance between a candidate's
	// group-length standard deviation and the clauses'.
	StdevTolerance float64
}

// PunctuationForcedAligner splices ground-truth punctuation into phoneme
// offsets.
type PunctuationForcedAligner struct {
	g2p           g2p.G2P
	punctuations  map[string]bool
	splitter      *regexp.Regexp
	maxCandidates int
	tolerance     float64
}

// New returns an aligner using converter for the ground truth.
func New(converter g2p.G2P, opts Options) (*PunctuationForcedAligner, error) {
	if converter == nil {
		return nil, errors.New("aligner: g2p required")
	}
	puncts := opts.Punctuations
	if len(puncts) == 0 {
		puncts = g2p.DefaultPunctuations
	}
	set := make(map[string]bool, len(puncts))
	quoted := make([]string, 0, len(puncts))
	for _, p := range puncts {
		if p == "" || set[p] {
			continue
		}
		set[p] = true
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return nil, errors.New("aligner: no punctuation marks configured")
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	tolerance := opts.StdevTolerance
	if tolerance <= 0 {
		tolerance = DefaultStdevTolerance
	}
	return &PunctuationForcedAligner{
		g2p:           converter,
		punctuations:  set,
		splitter:      regexp.MustCompile(strings.Join(quoted, "|")),
		maxCandidates: maxCandidates,
		tolerance:     tolerance,
	}, nil
}

// IsPunctuation reports whether token is one of the configured marks.
func (a *PunctuationForcedAligner) IsPunctuation(token string) bool {
	return a.punctuations[token]
}

// Align returns offsets with the punctuation of text inserted. The input is
// never modified. When the ground truth has no phonemes or no partition of
// the prediction fits, a copy of the input is returned.
func (a *PunctuationForcedAligner) Align(offsets []offset.Offset, text string) ([]offset.Offset, error) {
	out := append([]offset.Offset(nil), offsets...)

	truth, err := a.g2p.Phonemize(text)
	if err != nil {
		return out, fmt.Errorf("g2p: %w", err)
	}
	segments, cleaned := a.SplitPunctuation(truth)
	if len(cleaned) == 0 || len(segments) == len(cleaned) {
		return out, nil
	}

	predicted := make([]string, len(offsets))
	for i, o := range offsets {
		predicted[i] = o.Text()
	}
	if len(predicted) < len(cleaned) {
		return out, nil
	}
	if binomialExceeds(len(predicted)-1, len(cleaned)-1, a.maxCandidates) {
		return out, fmt.Errorf("%w: %d phonemes into %d groups", ErrCandidateLimit, len(predicted), len(cleaned))
	}

	best := a.bestPartition(predicted, cleaned)
	if best == nil {
		return out, nil
	}
	return a.splice(out, best, segments), nil
}

// SplitPunctuation joins tokens with spaces and splits the result at
// punctuation marks. segments keeps the marks in order; cleaned holds only
// the phoneme runs.
func (a *PunctuationForcedAligner) SplitPunctuation(tokens []string) (segments, cleaned []string) {
	joined := strings.Join(tokens, " ")
	add := func(piece string) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			return
		}
		segments = append(segments, piece)
		if !a.punctuations[piece] {
			cleaned = append(cleaned, piece)
		}
	}
	last := 0
	for _, loc := range a.splitter.FindAllStringIndex(joined, -1) {
		add(joined[last:loc[0]])
		add(joined[loc[0]:loc[1]])
		last = loc[1]
	}
	add(joined[last:])
	return segments, cleaned
}

// bestPartition returns the group lengths of the first highest-scoring
// partition of predicted into len(cleaned) groups, or nil when none survives
// the spread filter.
func (a *PunctuationForcedAligner) bestPartition(predicted, cleaned []string) []int {
	k := len(cleaned)
	var target float64
	if k > 1 {
		lengths := make([]int, k)
		for i, c := range cleaned {
			lengths[i] = len(strings.Fields(c))
		}
		target = sampleStdev(lengths)
	}

	it := newPartitionIter(len(predicted), k)
	bestScore := -1.0
	var best []int
	for it.Next() {
		if k > 1 {
			spread := sampleStdev(it.Lengths())
			if spread < target-a.tolerance || spread > target+a.tolerance {
				continue
			}
		}
		var total float64
		for i, group := range it.Groups(predicted) {
			total += textutil.Ratio(strings.Join(group, " "), cleaned[i])
		}
		score := total / float64(k)
		if score > bestScore {
			bestScore = score
			best = it.Lengths()
			if score >= 1 {
				break
			}
		}
	}
	return best
}

// splice inserts a mark offset for every punctuation segment. lengths gives
// the predicted phoneme count of each non-punctuation segment in order.
func (a *PunctuationForcedAligner) splice(offsets []offset.Offset, lengths []int, segments []string) []offset.Offset {
	out := make([]offset.Offset, 0, len(offsets)+len(segments)-len(lengths))
	next := 0
	group := 0
	for _, seg := range segments {
		if !a.punctuations[seg] {
			out = append(out, offsets[next:next+lengths[group]]...)
			next += lengths[group]
			group++
			continue
		}
		var start float64
		switch {
		case len(out) > 0:
			start = out[len(out)-1].End
		case next < len(offsets):
			start = offsets[next].Start
		}
		end := start
		if next < len(offsets) {
			end = offsets[next].Start
		}
		out = append(out, offset.Offset{Unit: seg, Start: start, End: end})
	}
	return append(out, offsets[next:]...)
}

// sampleStdev is the n-1 standard deviation. Fewer than two values give 0.
func sampleStdev(values []int) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(n)
	var ss float64
	for _, v := range values {
		d := float64(v) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
