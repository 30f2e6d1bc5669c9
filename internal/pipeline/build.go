package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"speechline/internal/aligner"
	"speechline/internal/config"
	"speechline/internal/g2p"
	"speechline/internal/lexicon"
	"speechline/internal/media/audio"
	"speechline/internal/segmenter"
)

// ErrLexiconRequired is returned when phoneme overlap segmentation or
// alignment is configured without any lexicon entries.
var ErrLexiconRequired = errors.New("lexicon required")

// LoadLexicon merges the configured lexicon files followed by extra.
func LoadLexicon(cfg *config.Config, extra ...string) (*lexicon.Lexicon, error) {
	paths := append(append([]string(nil), cfg.Lexicon.Paths...), extra...)
	lex, err := lexicon.LoadFiles(paths)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return lex, nil
}

// NewSegmenter builds the configured segmenter. Phoneme overlap needs a
// non-empty lexicon.
func NewSegmenter(cfg *config.Config, lex *lexicon.Lexicon) (segmenter.Segmenter, error) {
	kind, err := segmenter.ParseKind(cfg.Segmenter.Type)
	if err != nil {
		return nil, err
	}
	opts := segmenter.Options{
		Kind:            kind,
		SilenceDuration: cfg.Segmenter.SilenceDuration,
	}
	if kind == segmenter.KindPhonemeOverlap {
		if lex.Len() == 0 {
			return nil, fmt.Errorf("%w: phoneme_overlap segmenter needs [lexicon] paths or --lexicon", ErrLexiconRequired)
		}
		mode, err := segmenter.ParseMatchMode(cfg.Segmenter.PhonemeMatch)
		if err != nil {
			return nil, err
		}
		opts.Lexicon = lex
		opts.PhonemeMatch = mode
	}
	return segmenter.New(opts)
}

// NewClassifier returns the noise classifier, or nil when noise tagging is
// disabled.
func NewClassifier(cfg *config.Config) (segmenter.NoiseClassifier, error) {
	if !cfg.Noise.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Noise.Classifier) {
	case "", config.ClassifierEnergy:
		return audio.NewEnergyClassifier(cfg.Noise.EnergyFloorDB), nil
	default:
		return nil, fmt.Errorf("unsupported noise classifier %q", cfg.Noise.Classifier)
	}
}

// AlignerSet lazily builds one aligner per base language.
type AlignerSet struct {
	lex  *lexicon.Lexicon
	opts aligner.Options

	mu       sync.Mutex
	aligners map[string]*aligner.PunctuationForcedAligner
}

// NewAlignerSet validates the lexicon and aligner options up front.
func NewAlignerSet(cfg *config.Config, lex *lexicon.Lexicon) (*AlignerSet, error) {
	if lex.Len() == 0 {
		return nil, fmt.Errorf("%w: alignment needs [lexicon] paths or --lexicon", ErrLexiconRequired)
	}
	return &AlignerSet{
		lex: lex,
		opts: aligner.Options{
			Punctuations:   cfg.Aligner.Punctuations,
			MaxCandidates:  cfg.Aligner.MaxCandidates,
			StdevTolerance: cfg.Aligner.StdevTolerance,
		},
		aligners: make(map[string]*aligner.PunctuationForcedAligner),
	}, nil
}

// For returns the aligner for languageCode.
func (s *AlignerSet) For(languageCode string) (*aligner.PunctuationForcedAligner, error) {
	key := strings.ToLower(languageCode)
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.aligners[key]; ok {
		return a, nil
	}
	converter, err := g2p.ForLanguage(languageCode, s.lex, s.opts.Punctuations)
	if err != nil {
		return nil, err
	}
	a, err := aligner.New(converter, s.opts)
	if err != nil {
		return nil, err
	}
	s.aligners[key] = a
	return a, nil
}
