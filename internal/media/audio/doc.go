// Package audio provides the in-memory waveform used by segmentation and the
// codecs that move it on and off disk.
//
// WAV files are decoded and encoded with github.com/go-audio/wav; any other
// container is decoded through ffmpeg into 16 kHz mono PCM after ffprobe
// confirms it carries an audio stream. Exported chunks are always written as
// mono 16-bit PCM at 16 kHz.
//
// Key types:
//   - Waveform: mono float samples plus their sample rate
//   - EnergyClassifier: RMS-energy noise classifier for empty-gap tagging
//
// Primary entry points:
//   - Decode: loads any supported file into a Waveform
//   - WriteWAV: exports a Waveform as a chunk file
package audio
