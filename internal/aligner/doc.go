// Package aligner restores punctuation in phoneme-level recognizer output.
//
// The PunctuationForcedAligner renders the punctuated ground truth with a
// g2p, splits it into clauses at punctuation marks, and searches every way of
// cutting the predicted phonemes into the same number of contiguous groups.
// Candidates whose group-length spread is far from the clauses' spread are
// pruned; the rest are scored by mean sequence-matcher similarity, and the
// first best candidate decides where each mark is spliced in. Punctuation has
// no acoustic extent, so its timing is interpolated from its neighbours.
//
// The search is combinatorial in the number of marks. MaxCandidates bounds
// it: when the partition count exceeds the cap the input is returned
// unchanged together with ErrCandidateLimit.
package aligner
