// Package lexicon holds the read-only pronunciation dictionary shared by the
// phoneme-overlap segmenter, the lexicon-backed g2p, and the phoneme error
// rate metric.
//
// A Lexicon is an immutable value: word keys are normalized on construction,
// each word keeps its realizations in first-seen order without duplicates,
// and Merge returns a new Lexicon holding the per-word set union. Lexicon
// files are JSON objects whose values are either lists of space-joined
// phoneme strings or lists of phoneme lists.
package lexicon
