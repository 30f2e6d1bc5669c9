package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"speechline/internal/config"
	"speechline/internal/dataset"
	"speechline/internal/ledger"
	"speechline/internal/logging"
	"speechline/internal/media/audio"
	"speechline/internal/offset"
	"speechline/internal/segmenter"
	"speechline/internal/textutil"
)

// Reasons recorded for files skipped before segmentation.
const (
	ReasonOffsetsMissing = "offsets not found"
	ReasonOffsetsInvalid = "invalid offsets"
)

// Segment chunks every item with seg and writes the output manifest. The
// output directory is locked for the duration of the batch. classifier may
// be nil when noise tagging is disabled.
func (r *Runner) Segment(ctx context.Context, items []dataset.Item, seg segmenter.Segmenter, classifier segmenter.NoiseClassifier) (Summary, error) {
	if seg == nil {
		return Summary{}, errors.New("segment: segmenter required")
	}
	if r.cfg.Noise.Enabled && classifier == nil {
		return Summary{}, errors.New("segment: noise tagging enabled without a classifier")
	}
	outDir := r.cfg.Paths.OutputDir
	lock, err := acquireOutputLock(outDir)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	if r.cfg.Workflow.FilterEmptyTranscript {
		kept := dataset.FilterEmptyGroundTruth(items)
		if dropped := len(items) - len(kept); dropped > 0 {
			r.logger.Info("dropped items without ground truth", logging.Int("dropped", dropped))
		}
		items = kept
	}

	opts := segmenter.ChunkOptions{
		OutDir:               outDir,
		MinimumChunkDuration: r.cfg.Segmenter.MinimumChunkDuration,
		NoiseClassify:        r.cfg.Noise.Enabled,
		MinimumEmptyDuration: r.cfg.Noise.MinimumEmptyDuration,
		NoiseThreshold:       r.cfg.Noise.Threshold,
		Classifier:           classifier,
	}
	task := func(ctx context.Context, logger *slog.Logger, item dataset.Item) outcome {
		return r.segmentFile(ctx, logger, seg, opts, item)
	}
	run := ledger.Run{
		Segmenter:     string(seg.Kind()),
		OutputDir:     outDir,
		ConfigSummary: r.configSummary(),
	}
	summary, outcomes, err := r.batch(ctx, CommandSegment, run, items, task)
	if err != nil {
		return summary, err
	}

	manifestPath := filepath.Join(outDir, dataset.ManifestFileName)
	var entries []dataset.Entry
	if summary.Resumed > 0 {
		entries = r.previousEntries(manifestPath, items, outcomes)
	}
	for _, out := range outcomes {
		entries = append(entries, out.entries...)
	}
	written, err := dataset.WriteManifest(manifestPath, entries)
	if err != nil {
		return summary, err
	}
	if written {
		summary.ManifestPath = manifestPath
		r.logger.Info("manifest written",
			logging.String("manifest_path", manifestPath),
			logging.Int("chunks", len(entries)),
		)
	} else {
		logging.WarnWithContext(r.logger, "no chunks exported, manifest not written", "manifest_empty",
			logging.String(logging.FieldErrorHint, "check offsets JSON files and segmenter settings"),
			logging.String(logging.FieldImpact, "no manifest produced"),
		)
	}
	return summary, nil
}

// previousEntries keeps manifest entries of resumed files from an earlier run.
func (r *Runner) previousEntries(manifestPath string, items []dataset.Item, outcomes []outcome) []dataset.Entry {
	old, err := dataset.ReadManifest(manifestPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(r.logger, "previous manifest unreadable", "manifest_unreadable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "chunks of resumed files missing from manifest"),
			)
		}
		return nil
	}
	resumed := make(map[string]bool, len(items))
	for i, item := range items {
		if outcomes[i].resumed {
			resumed[item.Audio] = true
		}
	}
	kept := make([]dataset.Entry, 0, len(old))
	for _, e := range old {
		if resumed[e.Source] {
			kept = append(kept, e)
		}
	}
	return kept
}

func (r *Runner) segmentFile(ctx context.Context, logger *slog.Logger, seg segmenter.Segmenter, opts segmenter.ChunkOptions, item dataset.Item) outcome {
	offsets, _, err := offset.ReadJSON(offset.SiblingJSONPath(item.Audio))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return r.skipSegment(logger, empty(ReasonOffsetsMissing))
	case errors.Is(err, offset.ErrInvalidOffset):
		return r.skipSegment(logger, empty(fmt.Sprintf("%s: %v", ReasonOffsetsInvalid, err)))
	case err != nil:
		return r.failSegment(logger, failed("read offsets", err))
	}
	if stripsWhitespace(r.cfg) {
		offsets = offset.StripWhitespace(offsets)
	}

	var wave audio.Waveform
	if len(offsets) > 0 {
		wave, err = audio.Decode(ctx, item.Audio, audio.DecodeOptions{
			FFmpegBinary:  r.cfg.FFmpegBinary(),
			FFprobeBinary: r.cfg.FFprobeBinary(),
		})
		if err != nil {
			return r.failSegment(logger, failed("decode audio", err))
		}
	}

	result, err := segmenter.ChunkAudioSegments(ctx, seg, segmenter.Request{
		AudioPath:   item.Audio,
		Audio:       wave,
		Offsets:     offsets,
		GroundTruth: textutil.Words(item.GroundTruth),
	}, opts)
	if err != nil {
		return r.failSegment(logger, failed("segment", err))
	}
	if result.Empty {
		return r.skipSegment(logger, empty(result.Reason))
	}

	r.metrics.RecordChunks(len(result.Chunks), result.Skipped)
	r.metrics.RecordNoiseTags(result.NoiseTags)

	out := outcome{result: ledger.FileResult{
		Status:   ledger.StatusOK,
		Segments: len(result.Segments),
		Chunks:   len(result.Chunks),
		Skipped:  result.Skipped,
	}}
	out.entries = make([]dataset.Entry, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		out.entries = append(out.entries, dataset.Entry{
			Audio:        chunk.AudioPath,
			Transcript:   chunk.TranscriptPath,
			Text:         chunk.Segment.Transcript(),
			Duration:     offset.Round3(chunk.Duration),
			LanguageCode: item.LanguageCode,
			Source:       item.Audio,
		})
	}
	logger.Info("chunks exported",
		logging.Int("segments", len(result.Segments)),
		logging.Int("chunks", len(result.Chunks)),
		logging.Int("skipped", result.Skipped),
		logging.Int("noise_tags", countTags(result.NoiseTags)),
	)
	return out
}

// stripsWhitespace reports whether blank units are dropped before chunking.
// The phoneme overlap segmenter splits words on those units, so they are
// always kept for it.
func stripsWhitespace(cfg *config.Config) bool {
	return !cfg.Segmenter.KeepWhitespace && segmenter.Kind(strings.ToLower(strings.TrimSpace(cfg.Segmenter.Type))) != segmenter.KindPhonemeOverlap
}

func (r *Runner) skipSegment(logger *slog.Logger, out outcome) outcome {
	logging.WarnWithContext(logger, "segmentation skipped", "segment_skipped",
		logging.String("reason", out.result.Reason),
	)
	return out
}

func (r *Runner) failSegment(logger *slog.Logger, out outcome) outcome {
	logging.ErrorWithContext(logger, "segmentation failed", "segment_failed",
		logging.String("reason", out.result.Reason),
		logging.String(logging.FieldImpact, "file skipped, batch continues"),
	)
	return out
}

func countTags(tags map[string]int) int {
	total := 0
	for _, n := range tags {
		total += n
	}
	return total
}

func (r *Runner) configSummary() string {
	c := r.cfg
	parts := []string{
		fmt.Sprintf("segmenter=%s", c.Segmenter.Type),
		fmt.Sprintf("silence_duration=%g", c.Segmenter.SilenceDuration),
		fmt.Sprintf("minimum_chunk_duration=%g", c.Segmenter.MinimumChunkDuration),
		fmt.Sprintf("noise=%t", c.Noise.Enabled),
		fmt.Sprintf("workers=%d", c.Workflow.Workers),
	}
	return strings.Join(parts, " ")
}
