// Package scoring computes the phoneme error rate of recognizer output
// against lexicon pronunciations.
//
// Substitutions that land on a phoneme position where the lexicon lists more
// than one accepted realization, and that produce one of those realizations,
// are not counted as errors.
package scoring
