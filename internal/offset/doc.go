// Package offset defines the timed token records exchanged between the
// recognizer output, the segmenters, and the exported chunk transcripts.
//
// An Offset is a single phoneme, character, or word with start/end seconds.
// A Segment is a contiguous run of offsets exported as one audio chunk. Noise
// markers inserted during segmentation are carried as a tagged Noise value
// rather than encoded in the unit string; the `<EMPTY>` and `<label>` forms
// only appear at the serialization boundary (TSV and JSON).
package offset
