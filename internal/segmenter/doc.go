// Package segmenter groups time-aligned recognizer offsets into segments and
// exports each segment as an audio chunk with an aligned transcript.
//
// Three strategies implement the Segmenter interface:
//   - Silence cuts wherever the gap between consecutive offsets reaches a
//     configured duration.
//   - WordOverlap keeps the runs of predicted words that exactly match the
//     ground truth under a sequence-matcher diff.
//   - PhonemeOverlap merges phonemes into word groups and keeps runs whose
//     groups match lexicon realizations of the ground-truth words.
//
// ChunkAudioSegments is the shared export routine. It optionally inserts
// noise markers into long in-segment gaps and relabels them with a
// NoiseClassifier, then writes `{outdir}/{lang}/{stem}-{index}.wav` and the
// matching `.tsv` for every segment that meets the minimum chunk duration.
// Files where the strategy finds nothing to keep produce an empty Result,
// not an error.
package segmenter
