package testsupport

import (
	"speechline/internal/lexicon"
	"speechline/internal/offset"
)

// GroundTruth is the transcript used by the sample offsets.
const GroundTruth = "Her red umbrella is just the best"

// SampleLexicon returns the pronunciations of the GroundTruth words.
func SampleLexicon() *lexicon.Lexicon {
	return lexicon.New(map[string][]string{
		"her":      {"h ˈɚ", "h ɜ ɹ", "ɜ ɹ", "h ɜː ɹ", "ə ɹ"},
		"red":      {"ɹ ˈɛ d", "ɹ ɛ d"},
		"umbrella": {"ˈʌ m b ɹ ˌɛ l ə", "ʌ m b ɹ ɛ l ə"},
		"is":       {"ˈɪ z", "ɪ z"},
		"just":     {"d͡ʒ ˈʌ s t", "d͡ʒ ʌ s t"},
		"the":      {"ð ə", "ð i", "ð iː", "ð ɪ"},
		"best":     {"b ˈɛ s t", "b ɛ s t"},
	})
}

// PhonemeOffsets returns recognizer phoneme offsets for GroundTruth with word
// separators as blank units. "umbrella" and "the" are misrecognized.
func PhonemeOffsets() []offset.Offset {
	return []offset.Offset{
		{Unit: "h", Start: 0.16, End: 0.18},
		{Unit: "ɝ", Start: 0.26, End: 0.28},
		{Unit: " ", Start: 0.3, End: 0.34},
		{Unit: "ɹ", Start: 0.36, End: 0.38},
		{Unit: "ɛ", Start: 0.44, End: 0.46},
		{Unit: "d", Start: 0.5, End: 0.52},
		{Unit: " ", Start: 0.6, End: 0.64},
		{Unit: "ə", Start: 0.72, End: 0.74},
		{Unit: "m", Start: 0.76, End: 0.78},
		{Unit: "b", Start: 0.82, End: 0.84},
		{Unit: "ɹ", Start: 0.84, End: 0.88},
		{Unit: "ɛ", Start: 0.92, End: 0.94},
		{Unit: "l", Start: 0.98, End: 1.0},
		{Unit: "ə", Start: 1.12, End: 1.14},
		{Unit: " ", Start: 1.3, End: 1.34},
		{Unit: "ɪ", Start: 1.4, End: 1.42},
		{Unit: "z", Start: 1.44, End: 1.46},
		{Unit: " ", Start: 1.52, End: 1.56},
		{Unit: "dʒ", Start: 1.58, End: 1.6},
		{Unit: "ʌ", Start: 1.66, End: 1.68},
		{Unit: "s", Start: 1.7, End: 1.72},
		{Unit: "t", Start: 1.78, End: 1.8},
		{Unit: " ", Start: 1.84, End: 1.88},
		{Unit: "θ", Start: 1.88, End: 1.9},
		{Unit: " ", Start: 1.96, End: 2.0},
		{Unit: "b", Start: 2.0, End: 2.02},
		{Unit: "ɛ", Start: 2.12, End: 2.14},
		{Unit: "s", Start: 2.18, End: 2.2},
		{Unit: "t", Start: 2.32, End: 2.34},
	}
}

// WordOffsets returns word-level offsets for GroundTruth.
func WordOffsets() []offset.Offset {
	return []offset.Offset{
		{Unit: "HER", Start: 0.18, End: 0.28},
		{Unit: "RED", Start: 0.34, End: 0.52},
		{Unit: "UMBRELLA", Start: 0.68, End: 1.12},
		{Unit: "IS", Start: 1.4, End: 1.46},
		{Unit: "JUST", Start: 1.56, End: 1.78},
		{Unit: "THE", Start: 1.86, End: 1.94},
		{Unit: "BEST", Start: 1.98, End: 2.3},
	}
}
