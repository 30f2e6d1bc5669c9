// Package main hosts the speechline CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into batch runs over the
// internal packages: segmentation of recognizer offsets into audio chunks,
// punctuation forced alignment, phoneme error rate scoring, lexicon
// maintenance, ledger inspection, and configuration scaffolding. It
// centralizes configuration resolution and logging setup so subcommands can
// focus on flags and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
