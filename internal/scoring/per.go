package scoring

import (
	"errors"
	"fmt"

	"speechline/internal/lexicon"
)

var (
	// ErrBatchMismatch is returned when words and predictions differ in length.
	ErrBatchMismatch = errors.New("scoring: batch length mismatch")
	// ErrEmptyReference is returned when there is nothing to score against.
	ErrEmptyReference = errors.New("scoring: empty reference")
)

// Measures holds the per-item error count and reference length.
type Measures struct {
	Errors int `json:"errors"`
	Total  int `json:"total"`
}

// Rate returns Errors/Total, or 0 for an empty reference.
func (m Measures) Rate() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Total)
}

// PhonemeErrorRate scores phoneme predictions against word sequences.
type PhonemeErrorRate struct {
	lex *lexicon.Lexicon
}

// New validates lex and returns a scorer. A word whose pronunciations differ
// in length is rejected with lexicon.ErrUnequalPronunciations.
func New(lex *lexicon.Lexicon) (*PhonemeErrorRate, error) {
	if lex == nil {
		return nil, errors.New("scoring: lexicon required")
	}
	if err := lex.ValidateUniformLength(); err != nil {
		return nil, err
	}
	return &PhonemeErrorRate{lex: lex}, nil
}

// Compute returns the batch error rate: total errors over total reference
// phonemes across every item.
func (p *PhonemeErrorRate) Compute(sequences [][]string, predictions [][]string) (float64, error) {
	if len(sequences) != len(predictions) {
		return 0, fmt.Errorf("%w: %d word sequences, %d predictions", ErrBatchMismatch, len(sequences), len(predictions))
	}
	var sum Measures
	for i := range sequences {
		m, err := p.ComputeMeasures(sequences[i], predictions[i])
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		sum.Errors += m.Errors
		sum.Total += m.Total
	}
	if sum.Total == 0 {
		return 0, ErrEmptyReference
	}
	return sum.Rate(), nil
}

// ComputeMeasures scores a single prediction against the first-listed
// pronunciation of words.
func (p *PhonemeErrorRate) ComputeMeasures(words []string, prediction []string) (Measures, error) {
	reference, stack, err := p.reference(words)
	if err != nil {
		return Measures{}, err
	}
	errs := 0
	for _, op := range EditOps(reference, prediction) {
		if op.Kind == OpReplace && accepted(stack, op.SourcePos, prediction[op.DestPos]) {
			continue
		}
		errs++
	}
	return Measures{Errors: errs, Total: len(reference)}, nil
}

// reference builds the expected phoneme sequence and, for each of its
// positions, the set of phonemes any variant of the word allows there.
func (p *PhonemeErrorRate) reference(words []string) ([]string, []map[string]bool, error) {
	var reference []string
	var stack []map[string]bool
	for _, w := range words {
		prons, err := p.lex.Pronunciations(w)
		if err != nil {
			return nil, nil, err
		}
		reference = append(reference, prons[0]...)
		for pos := range prons[0] {
			set := make(map[string]bool, len(prons))
			for _, variant := range prons {
				set[variant[pos]] = true
			}
			stack = append(stack, set)
		}
	}
	return reference, stack, nil
}

func accepted(stack []map[string]bool, pos int, phoneme string) bool {
	if pos >= len(stack) || len(stack[pos]) < 2 {
		return false
	}
	return stack[pos][phoneme]
}
