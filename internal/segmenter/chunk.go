package segmenter

import (
	"context"
	"fmt"
	"os"

	"speechline/internal/media/audio"
	"speechline/internal/offset"
)

// Reasons reported by an empty Result.
const (
	ReasonNoOffsets     = "no offsets"
	ReasonNoGroundTruth = "no ground truth"
	ReasonNoAudio       = "empty audio"
	ReasonNoSegments    = "no matching segments"
)

// Request is one audio file to segment.
type Request struct {
	AudioPath   string
	Audio       audio.Waveform
	Offsets     []offset.Offset
	GroundTruth []string
}

// ChunkOptions configures export and noise tagging.
type ChunkOptions struct {
	OutDir               string
	MinimumChunkDuration float64

	NoiseClassify        bool
	MinimumEmptyDuration float64
	NoiseThreshold       float64
	Classifier           NoiseClassifier
}

// Chunk is one exported audio/transcript pair.
type Chunk struct {
	Index          int
	AudioPath      string
	TranscriptPath string
	Duration       float64
	Segment        offset.Segment
}

// Result summarises segmentation of one file.
type Result struct {
	// Segments holds every segment re-based to its own start, including the
	// ones too short to export.
	Segments []offset.Segment
	Chunks   []Chunk
	Skipped  int
	Empty    bool
	Reason   string
	// NoiseTags counts classifier labels assigned to empty markers.
	NoiseTags map[string]int
}

func emptyResult(reason string) Result {
	return Result{Empty: true, Reason: reason}
}

// ChunkAudioSegments segments req with seg and exports every segment lasting
// at least opts.MinimumChunkDuration. Chunk indices count every segment, so
// skipped chunks leave gaps in the numbering. Missing offsets, ground truth,
// audio, or matches yield an empty Result and no files.
func ChunkAudioSegments(ctx context.Context, seg Segmenter, req Request, opts ChunkOptions) (Result, error) {
	if len(req.Offsets) == 0 {
		return emptyResult(ReasonNoOffsets), nil
	}
	if seg.NeedsGroundTruth() && len(req.GroundTruth) == 0 {
		return emptyResult(ReasonNoGroundTruth), nil
	}
	segments := seg.ChunkOffsets(req.Offsets, req.GroundTruth)
	if len(segments) == 0 {
		return emptyResult(ReasonNoSegments), nil
	}
	if req.Audio.IsEmpty() {
		return emptyResult(ReasonNoAudio), nil
	}

	var noiseTags map[string]int
	if opts.NoiseClassify {
		segments = InsertEmptyTags(segments, opts.MinimumEmptyDuration)
		var err error
		segments, noiseTags, err = ClassifyNoise(ctx, segments, req.Audio, opts.Classifier, opts.NoiseThreshold)
		if err != nil {
			return Result{}, err
		}
	}

	if err := os.MkdirAll(OutDirPath(req.AudioPath, opts.OutDir), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	result := Result{
		Segments:  make([]offset.Segment, 0, len(segments)),
		NoiseTags: noiseTags,
	}
	minimumMs := opts.MinimumChunkDuration * 1000
	for idx, segment := range segments {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		clip := req.Audio.SliceMillis(segment.Start()*1000, segment.End()*1000)
		shifted := segment.Shift()
		result.Segments = append(result.Segments, shifted)

		if float64(clip.DurationMillis()) < minimumMs {
			result.Skipped++
			continue
		}

		chunk := Chunk{
			Index:          idx,
			AudioPath:      ChunkPath(req.AudioPath, opts.OutDir, idx, "wav"),
			TranscriptPath: ChunkPath(req.AudioPath, opts.OutDir, idx, "tsv"),
			Duration:       clip.Duration(),
			Segment:        shifted,
		}
		if err := offset.WriteTSVFile(chunk.TranscriptPath, shifted); err != nil {
			return Result{}, fmt.Errorf("export transcript: %w", err)
		}
		if err := audio.WriteWAV(chunk.AudioPath, clip); err != nil {
			return Result{}, fmt.Errorf("export audio: %w", err)
		}
		result.Chunks = append(result.Chunks, chunk)
	}
	return result, nil
}
