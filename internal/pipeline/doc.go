// Package pipeline runs segmentation and punctuation alignment over a batch
// of audio files.
//
// A Runner fans files out to a bounded errgroup, records every outcome in the
// run ledger and the metrics recorder, and reports progress through an
// optional callback. One file failing never cancels its siblings; only
// context cancellation or a ledger write failure stops the batch.
package pipeline
