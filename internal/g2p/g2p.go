package g2p

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"speechline/internal/language"
	"speechline/internal/lexicon"
)

// DefaultPunctuations are the marks emitted as standalone tokens.
var DefaultPunctuations = []string{"?", ",", ".", "!", ";"}

// ErrNoLexicon is returned when no pronunciations are available.
var ErrNoLexicon = errors.New("g2p: lexicon is empty")

// G2P converts text to phoneme and punctuation tokens.
type G2P interface {
	Phonemize(text string) ([]string, error)
}

// Func adapts a plain function to G2P.
type Func func(text string) ([]string, error)

// Phonemize calls f.
func (f Func) Phonemize(text string) ([]string, error) { return f(text) }

// Lexicon renders each word with its first listed pronunciation.
type Lexicon struct {
	lex          *lexicon.Lexicon
	punctuations map[rune]bool
}

// NewLexicon returns a lexicon-backed G2P. Only single-rune marks in
// punctuations are emitted; nil selects DefaultPunctuations.
func NewLexicon(lex *lexicon.Lexicon, punctuations []string) *Lexicon {
	if len(punctuations) == 0 {
		punctuations = DefaultPunctuations
	}
	set := make(map[rune]bool, len(punctuations))
	for _, p := range punctuations {
		if r := []rune(p); len(r) == 1 {
			set[r[0]] = true
		}
	}
	return &Lexicon{lex: lex, punctuations: set}
}

// Phonemize splits text into words and punctuation marks. Unknown words
// return an error wrapping lexicon.ErrUnknownWord.
func (g *Lexicon) Phonemize(text string) ([]string, error) {
	var tokens []string
	var word strings.Builder
	flush := func() error {
		defer word.Reset()
		w := strings.TrimFunc(word.String(), func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w == "" {
			return nil
		}
		prons, err := g.lex.Pronunciations(w)
		if err != nil {
			return err
		}
		tokens = append(tokens, prons[0]...)
		return nil
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if err := flush(); err != nil {
				return nil, err
			}
		case g.punctuations[r]:
			if err := flush(); err != nil {
				return nil, err
			}
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ForLanguage selects the G2P for a language code. Every language currently
// resolves to the lexicon-backed implementation.
func ForLanguage(code string, lex *lexicon.Lexicon, punctuations []string) (G2P, error) {
	if lex.Len() == 0 {
		return nil, fmt.Errorf("%w (language %s)", ErrNoLexicon, language.Base(code))
	}
	return NewLexicon(lex, punctuations), nil
}
