// Package g2p defines the grapheme-to-phoneme contract used by the forced
// aligner and a lexicon-backed implementation.
//
// A G2P renders text as a flat token list in which every word contributes its
// phonemes and every punctuation mark is a standalone token.
package g2p
