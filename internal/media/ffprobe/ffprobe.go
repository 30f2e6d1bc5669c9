package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result holds the audio streams of one file and the container duration.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Stream is one audio stream. ffprobe reports sample_rate as a string.
type Stream struct {
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Inspect runs binary (ffprobe when empty) restricted to audio streams.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	args := []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_name,sample_rate,channels:format=duration",
		"-of", "json",
		"--", path,
	}
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return Parse(out)
}

// Parse decodes ffprobe -of json output.
func Parse(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("ffprobe output: %w", err)
	}
	return r, nil
}

// HasAudio reports whether any audio stream was found.
func (r Result) HasAudio() bool { return len(r.Streams) > 0 }

// SampleRateHz is the first stream's rate, or 0 when unknown.
func (r Result) SampleRateHz() int {
	if len(r.Streams) == 0 {
		return 0
	}
	rate, _ := strconv.Atoi(strings.TrimSpace(r.Streams[0].SampleRate))
	return rate
}

// DurationSeconds is the container duration, or 0 when absent or malformed.
func (r Result) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil {
		return 0
	}
	return d
}
