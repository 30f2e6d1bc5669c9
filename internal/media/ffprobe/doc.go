// Package ffprobe asks ffprobe which audio streams a file carries. Decoding
// uses it to reject containers without audio before spawning ffmpeg.
package ffprobe
