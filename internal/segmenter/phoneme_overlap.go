package segmenter

import (
	"fmt"
	"strings"

	"speechline/internal/lexicon"
	"speechline/internal/offset"
	"speechline/internal/textutil"
)

// MatchMode controls how a predicted phoneme group is compared with the
// ground-truth realizations.
type MatchMode string

const (
	// MatchSubstring accepts a group that occurs inside any realization of the
	// next unconsumed ground-truth word.
	MatchSubstring MatchMode = "substring"
	// MatchExact accepts a group equal to a realization of any remaining
	// ground-truth word.
	MatchExact MatchMode = "exact"
)

// ParseMatchMode validates a configured match mode.
func ParseMatchMode(value string) (MatchMode, error) {
	switch mode := MatchMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case MatchSubstring, MatchExact:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported phoneme match mode %q", value)
	}
}

// PhonemeOverlap merges phoneme offsets into word groups and keeps the runs
// of groups that match lexicon realizations of the ground truth.
type PhonemeOverlap struct {
	lexicon *lexicon.Lexicon
	mode    MatchMode
}

// NewPhonemeOverlap returns a phoneme-overlap segmenter over lex.
func NewPhonemeOverlap(lex *lexicon.Lexicon, mode MatchMode) *PhonemeOverlap {
	if mode == "" {
		mode = MatchSubstring
	}
	return &PhonemeOverlap{lexicon: lex, mode: mode}
}

func (p *PhonemeOverlap) Kind() Kind { return KindPhonemeOverlap }

func (p *PhonemeOverlap) NeedsGroundTruth() bool { return true }

// ChunkOffsets returns segments of merged word groups. Each returned offset
// spans one word and its unit is the space-joined phonemes.
func (p *PhonemeOverlap) ChunkOffsets(offsets []offset.Offset, groundTruth []string) []offset.Segment {
	if len(offsets) == 0 || len(groundTruth) == 0 {
		return nil
	}
	combinations := p.combinations(groundTruth)
	merged := MergeWords(offsets)

	var matched []int
	index := 0
	for i, group := range merged {
		if index >= len(combinations) {
			break
		}
		if p.matches(textutil.StripDiacritics(group.Unit), combinations, index) {
			matched = append(matched, i)
		}
		index++
	}
	if len(matched) == 0 {
		return nil
	}
	return sliceRuns(merged, collapseRuns(matched))
}

func (p *PhonemeOverlap) matches(group string, combinations []map[string]struct{}, index int) bool {
	if p.mode == MatchExact {
		for _, set := range combinations[index:] {
			if _, ok := set[group]; ok {
				return true
			}
		}
		return false
	}
	for realization := range combinations[index] {
		if strings.Contains(realization, group) {
			return true
		}
	}
	return false
}

// combinations returns, per ground-truth word, the diacritic-stripped set of
// its realizations. Words missing from the lexicon get an empty set and can
// never match.
func (p *PhonemeOverlap) combinations(groundTruth []string) []map[string]struct{} {
	out := make([]map[string]struct{}, len(groundTruth))
	for i, word := range groundTruth {
		set := make(map[string]struct{})
		realizations, _ := p.lexicon.Realizations(word)
		for _, r := range realizations {
			set[textutil.StripDiacritics(r)] = struct{}{}
		}
		out[i] = set
	}
	return out
}

// MergeWords joins phoneme offsets between separators into word groups. A
// group spans its first phoneme's start to its last phoneme's end.
func MergeWords(offsets []offset.Offset) []offset.Offset {
	var out []offset.Offset
	var units []string
	var current offset.Offset
	flush := func() {
		if len(units) == 0 {
			return
		}
		current.Unit = strings.Join(units, " ")
		out = append(out, current)
		units = nil
	}
	for _, o := range offsets {
		if o.IsSeparator() {
			flush()
			continue
		}
		if len(units) == 0 {
			current = offset.Offset{Start: o.Start}
		}
		current.End = o.End
		units = append(units, o.Text())
	}
	flush()
	return out
}

// collapseRuns turns sorted indices into half-open ranges of consecutive
// integers.
func collapseRuns(indices []int) [][2]int {
	if len(indices) == 0 {
		return nil
	}
	runs := [][2]int{}
	start, end := indices[0], indices[0]+1
	for _, i := range indices[1:] {
		if i == end {
			end++
			continue
		}
		runs = append(runs, [2]int{start, end})
		start, end = i, i+1
	}
	return append(runs, [2]int{start, end})
}
