package lexicon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"speechline/internal/fileutil"
	"speechline/internal/textutil"
)

var (
	// ErrUnknownWord is returned when a word has no lexicon entry.
	ErrUnknownWord = errors.New("word not in lexicon")
	// ErrUnequalPronunciations is returned when a word's pronunciation
	// variants differ in phoneme count.
	ErrUnequalPronunciations = errors.New("pronunciation variants differ in length")
)

// Lexicon maps normalized words to their accepted realizations.
type Lexicon struct {
	entries map[string][]string
}

// New builds a lexicon from word to space-joined realizations.
func New(entries map[string][]string) *Lexicon {
	lex := &Lexicon{entries: make(map[string][]string, len(entries))}
	for _, word := range sortedKeys(entries) {
		for _, r := range entries[word] {
			lex.add(word, r)
		}
	}
	return lex
}

// FromPronunciations builds a lexicon from word to phoneme lists.
func FromPronunciations(entries map[string][][]string) *Lexicon {
	lex := &Lexicon{entries: make(map[string][]string, len(entries))}
	for _, word := range sortedKeys(entries) {
		for _, p := range entries[word] {
			lex.add(word, strings.Join(p, " "))
		}
	}
	return lex
}

func (l *Lexicon) add(word, realization string) {
	key := textutil.NormalizeWord(word)
	value := strings.Join(strings.Fields(realization), " ")
	if key == "" || value == "" {
		return
	}
	if slices.Contains(l.entries[key], value) {
		return
	}
	l.entries[key] = append(l.entries[key], value)
}

// Load decodes a JSON lexicon.
func Load(r io.Reader) (*Lexicon, error) {
	var raw map[string][]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	lex := &Lexicon{entries: make(map[string][]string, len(raw))}
	for _, word := range sortedKeys(raw) {
		for i, item := range raw[word] {
			realization, err := decodeRealization(item)
			if err != nil {
				return nil, fmt.Errorf("decode lexicon: %q variant %d: %w", word, i, err)
			}
			lex.add(word, realization)
		}
	}
	return lex, nil
}

func decodeRealization(item json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, nil
	}
	var phonemes []string
	if err := json.Unmarshal(item, &phonemes); err != nil {
		return "", errors.New("expected string or list of strings")
	}
	return strings.Join(phonemes, " "), nil
}

// LoadFile reads a JSON lexicon from path.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lex, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lex, nil
}

// LoadFiles reads and merges each lexicon in order. An empty list yields an
// empty lexicon.
func LoadFiles(paths []string) (*Lexicon, error) {
	merged := New(nil)
	for _, path := range paths {
		lex, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		merged = merged.Merge(lex)
	}
	return merged, nil
}

// Merge returns a new lexicon holding the union of l and other. Variants of l
// come first for words present in both.
func (l *Lexicon) Merge(other *Lexicon) *Lexicon {
	out := &Lexicon{entries: make(map[string][]string, l.Len())}
	for _, src := range []*Lexicon{l, other} {
		if src == nil {
			continue
		}
		for _, word := range src.Words() {
			for _, r := range src.entries[word] {
				out.add(word, r)
			}
		}
	}
	return out
}

// Len returns the number of words.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Words returns the sorted word keys.
func (l *Lexicon) Words() []string {
	if l == nil {
		return nil
	}
	return sortedKeys(l.entries)
}

// Contains reports whether word has an entry.
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.Realizations(word)
	return ok
}

// Realizations returns the space-joined realizations of word.
func (l *Lexicon) Realizations(word string) ([]string, bool) {
	if l == nil {
		return nil, false
	}
	values, ok := l.entries[textutil.NormalizeWord(word)]
	if !ok {
		return nil, false
	}
	return slices.Clone(values), true
}

// Pronunciations returns the realizations of word split into phonemes.
func (l *Lexicon) Pronunciations(word string) ([][]string, error) {
	values, ok := l.Realizations(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}
	prons := make([][]string, len(values))
	for i, v := range values {
		prons[i] = textutil.Phonemes(v)
	}
	return prons, nil
}

// ValidateUniformLength checks that every multi-variant word has variants of
// identical phoneme count.
func (l *Lexicon) ValidateUniformLength() error {
	var problems []string
	for _, word := range l.Words() {
		values := l.entries[word]
		want := len(textutil.Phonemes(values[0]))
		for _, v := range values[1:] {
			if got := len(textutil.Phonemes(v)); got != want {
				problems = append(problems, fmt.Sprintf("%q (%d vs %d)", word, want, got))
				break
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrUnequalPronunciations, strings.Join(problems, ", "))
	}
	return nil
}

// Encode writes the lexicon as an indented JSON object of space-joined
// realizations with sorted keys.
func (l *Lexicon) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	var entries map[string][]string
	if l != nil {
		entries = l.entries
	}
	if entries == nil {
		entries = map[string][]string{}
	}
	return enc.Encode(entries)
}

// WriteFile atomically writes the encoded lexicon to path.
func (l *Lexicon) WriteFile(path string) error {
	var sb strings.Builder
	if err := l.Encode(&sb); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, []byte(sb.String()), 0o644)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
