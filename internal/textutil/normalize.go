package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// diacriticReplacer removes length, stress, tie and syllabicity marks from IPA
// strings.
var diacriticReplacer = strings.NewReplacer(
	"ː", "",
	"ˑ", "",
	"̆", "",
	"̯", "",
	"͡", "",
	"‿", "",
	"͜", "",
	"̩", "",
	"ˈ", "",
	"ˌ", "",
)

var folder = cases.Lower(language.Und)

// NormalizeWord lowercases and trims a word for lexicon lookup.
func NormalizeWord(word string) string {
	return folder.String(strings.TrimSpace(word))
}

// StripDiacritics removes the IPA diacritic set from phonemes and trims the
// result.
func StripDiacritics(phonemes string) string {
	return strings.TrimSpace(diacriticReplacer.Replace(phonemes))
}

// Phonemes splits a space-joined phoneme string into its phonemes.
func Phonemes(realization string) []string {
	return strings.Fields(realization)
}

// Words splits text into lowercase word tokens. Surrounding punctuation is
// trimmed from every token; apostrophes and hyphens inside a word are kept,
// and tokens made only of punctuation are dropped.
func Words(text string) []string {
	fields := strings.FieldsFunc(folder.String(text), func(r rune) bool {
		return unicode.IsSpace(r) || isBreakPunct(r)
	})
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// isBreakPunct reports punctuation that always separates words.
func isBreakPunct(r rune) bool {
	switch r {
	case ',', '.', '!', '?', ';', ':', '"', '(', ')', '[', ']', '{', '}', '“', '”', '…':
		return true
	}
	return false
}
