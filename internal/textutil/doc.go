// Package textutil provides the text normalization shared by the segmenters,
// the forced aligner, and the lexicon.
//
// The primary use cases are:
//   - Tokenizing ground-truth transcripts into lowercase word tokens
//   - Normalizing words to lexicon keys
//   - Stripping IPA diacritics from phoneme strings
//   - Computing sequence-matcher similarity ratios between strings
//
// Case folding uses golang.org/x/text/cases so non-ASCII transcripts fold the
// same way lexicon keys do.
package textutil
