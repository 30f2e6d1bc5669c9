package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"speechline/internal/aligner"
	"speechline/internal/dataset"
	"speechline/internal/ledger"
	"speechline/internal/logging"
	"speechline/internal/offset"
	"speechline/internal/segmenter"
)

// AlignedSuffix replaces the extension of the audio file for aligned offsets.
const AlignedSuffix = ".aligned.json"

// Reasons recorded for files alignment leaves untouched.
const (
	ReasonNoTranscript   = "no transcript"
	ReasonNoPunctuation  = "no punctuation inserted"
	ReasonCandidateLimit = "candidate limit exceeded"
)

// AlignedPath returns where aligned offsets for audioPath are written.
func AlignedPath(audioPath string) string {
	return strings.TrimSuffix(offset.SiblingJSONPath(audioPath), ".json") + AlignedSuffix
}

// Align splices transcript punctuation into every item's offsets and writes
// {stem}.aligned.json beside the input, keeping the input's unit key. Files
// where nothing was inserted are recorded as empty and not written.
func (r *Runner) Align(ctx context.Context, items []dataset.Item, aligners *AlignerSet) (Summary, error) {
	if aligners == nil {
		return Summary{}, errors.New("align: aligner set required")
	}
	task := func(ctx context.Context, logger *slog.Logger, item dataset.Item) outcome {
		return r.alignFile(logger, aligners, item)
	}
	summary, _, err := r.batch(ctx, CommandAlign, ledger.Run{ConfigSummary: r.alignSummary()}, items, task)
	return summary, err
}

func (r *Runner) alignFile(logger *slog.Logger, aligners *AlignerSet, item dataset.Item) outcome {
	offsets, key, err := offset.ReadJSON(offset.SiblingJSONPath(item.Audio))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return skipAlign(logger, empty(ReasonOffsetsMissing))
	case errors.Is(err, offset.ErrInvalidOffset):
		return skipAlign(logger, empty(fmt.Sprintf("%s: %v", ReasonOffsetsInvalid, err)))
	case err != nil:
		return failAlign(logger, failed("read offsets", err))
	}
	if len(offsets) == 0 {
		return skipAlign(logger, empty(segmenter.ReasonNoOffsets))
	}
	if strings.TrimSpace(item.GroundTruth) == "" {
		return skipAlign(logger, empty(ReasonNoTranscript))
	}

	a, err := aligners.For(item.LanguageCode)
	if err != nil {
		return failAlign(logger, failed("build aligner", err))
	}
	aligned, err := a.Align(offsets, item.GroundTruth)
	switch {
	case errors.Is(err, aligner.ErrCandidateLimit):
		return skipAlign(logger, empty(ReasonCandidateLimit))
	case err != nil:
		return failAlign(logger, failed("align", err))
	}
	inserted := len(aligned) - len(offsets)
	if inserted == 0 {
		return skipAlign(logger, empty(ReasonNoPunctuation))
	}

	path := AlignedPath(item.Audio)
	if err := offset.WriteJSON(path, aligned, key); err != nil {
		return failAlign(logger, failed("write aligned offsets", err))
	}
	logger.Info("punctuation aligned",
		logging.Int("inserted", inserted),
		logging.String("aligned_path", path),
	)
	return outcome{
		result:   ledger.FileResult{Status: ledger.StatusOK, Segments: len(aligned)},
		inserted: inserted,
	}
}

func skipAlign(logger *slog.Logger, out outcome) outcome {
	logging.WarnWithContext(logger, "alignment skipped", "alignment_skipped",
		logging.String("reason", out.result.Reason),
	)
	return out
}

func failAlign(logger *slog.Logger, out outcome) outcome {
	logging.ErrorWithContext(logger, "alignment failed", "alignment_failed",
		logging.String("reason", out.result.Reason),
		logging.String(logging.FieldImpact, "file skipped, batch continues"),
	)
	return out
}

func (r *Runner) alignSummary() string {
	c := r.cfg.Aligner
	return fmt.Sprintf("punctuations=%s max_candidates=%d stdev_tolerance=%g",
		strings.Join(c.Punctuations, ""), c.MaxCandidates, c.StdevTolerance)
}
