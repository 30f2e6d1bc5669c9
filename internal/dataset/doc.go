// Package dataset finds the audio files a batch run processes and writes the
// manifest describing the chunks it exported.
//
// Directory inputs follow the {input}/{language}/{name}.{ext} layout with an
// optional {name}.txt ground truth beside each recording. Manifest inputs are
// JSON arrays (nested lists are flattened) or JSON lines of objects with
// "audio" and "ground_truth" keys.
package dataset
