package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"speechline/internal/config"
	"speechline/internal/dataset"
	"speechline/internal/ledger"
	"speechline/internal/logging"
	"speechline/internal/metrics"
)

// Command names recorded in the ledger.
const (
	CommandSegment = "segment"
	CommandAlign   = "align"
)

// Progress is reported after every file.
type Progress struct {
	Done   int
	Total  int
	Audio  string
	Status ledger.Status
	// Resumed is true when the file was skipped by resume mode.
	Resumed bool
}

// Percent returns completion in [0,100].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// Summary totals one batch.
type Summary struct {
	RunID   string
	Files   int
	OK      int
	Empty   int
	Failed  int
	Resumed int
	Chunks  int
	Skipped int
	// Inserted counts punctuation marks added by alignment.
	Inserted     int
	ManifestPath string
	Elapsed      time.Duration
}

// Dependencies wires a Runner.
type Dependencies struct {
	Config   *config.Config
	Ledger   *ledger.Store
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
	Progress ProgressFunc
	// Input is the dataset directory or manifest recorded on each run.
	Input string
}

// Runner executes batches.
type Runner struct {
	cfg      *config.Config
	store    *ledger.Store
	metrics  *metrics.Recorder
	logger   *slog.Logger
	progress ProgressFunc
	input    string
}

// NewRunner validates deps. Metrics and Progress are optional.
func NewRunner(deps Dependencies) (*Runner, error) {
	if deps.Config == nil || deps.Ledger == nil {
		return nil, errors.New("pipeline requires config and ledger")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      deps.Config,
		store:    deps.Ledger,
		metrics:  deps.Metrics,
		logger:   logger,
		progress: deps.Progress,
		input:    deps.Input,
	}, nil
}

// outcome is what a per-file task reports back to the batch.
type outcome struct {
	result   ledger.FileResult
	resumed  bool
	entries  []dataset.Entry
	inserted int
}

type fileTask func(ctx context.Context, logger *slog.Logger, item dataset.Item) outcome

// batch runs task over items and folds the outcomes into a Summary.
func (r *Runner) batch(ctx context.Context, command string, run ledger.Run, items []dataset.Item, task fileTask) (Summary, []outcome, error) {
	started := time.Now()
	run.Command = command
	run.Input = r.input
	run, err := r.store.StartRun(ctx, run)
	if err != nil {
		return Summary{}, nil, err
	}
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.NewComponentLogger(r.logger, command).With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("batch started",
		logging.String(logging.FieldEventType, command+"_started"),
		logging.Int("files", len(items)),
		logging.Int("workers", r.cfg.Workflow.Workers),
		logging.Bool("resume", r.cfg.Workflow.Resume),
	)

	summary := Summary{RunID: run.ID, Files: len(items)}
	outcomes := make([]outcome, len(items))
	sampler := logging.NewProgressSampler(10)
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.cfg.Workflow.Workers))
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileLogger := logger.With(logging.String(logging.FieldAudio, item.Audio))
			out := r.runFile(logging.WithAudio(gctx, item.Audio), fileLogger, command, item, task)
			if !out.resumed {
				if err := r.store.RecordFile(gctx, out.result); err != nil {
					return fmt.Errorf("ledger: %w", err)
				}
			}
			outcomes[i] = out

			mu.Lock()
			defer mu.Unlock()
			done++
			summary.add(out)
			p := Progress{Done: done, Total: len(items), Audio: item.Audio, Status: out.result.Status, Resumed: out.resumed}
			if sampler.ShouldLog(p.Percent()) {
				logger.Info("batch progress",
					logging.Float64(logging.FieldProgressPercent, p.Percent()),
					logging.Int("done", done),
					logging.Int("files", len(items)),
				)
			}
			if r.progress != nil {
				r.progress(p)
			}
			return nil
		})
	}
	runErr := g.Wait()
	summary.Elapsed = time.Since(started)

	status := ledger.RunCompleted
	if runErr != nil {
		status = ledger.RunFailed
	}
	// The batch context may be cancelled; the final stamp must still land.
	if err := r.store.FinishRun(context.WithoutCancel(ctx), run.ID, status); err != nil && runErr == nil {
		runErr = err
	}
	if err := r.metrics.WriteTextfile(r.cfg.Metrics.TextfilePath); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "metrics textfile not updated"),
		)
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "batch aborted", command+"_aborted", logging.Error(runErr))
		return summary, outcomes, runErr
	}
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, command+"_finished"),
		logging.Int("ok", summary.OK),
		logging.Int("empty", summary.Empty),
		logging.Int("failed", summary.Failed),
		logging.Int("resumed", summary.Resumed),
		logging.Int("chunks", summary.Chunks),
		logging.Duration("duration", summary.Elapsed),
	)
	return summary, outcomes, nil
}

func (r *Runner) runFile(ctx context.Context, logger *slog.Logger, command string, item dataset.Item, task fileTask) outcome {
	if r.cfg.Workflow.Resume {
		completed, err := r.store.Completed(ctx, command, item.Audio)
		if err != nil {
			logging.WarnWithContext(logger, "resume lookup failed", "resume_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "file reprocessed"),
			)
		} else if completed {
			logger.Debug("file already processed, skipping")
			return outcome{resumed: true, result: ledger.FileResult{AudioPath: item.Audio, Status: ledger.StatusOK}}
		}
	}

	started := time.Now()
	out := task(ctx, logger, item)
	out.result.Duration = time.Since(started)
	out.result.AudioPath = item.Audio
	if id, ok := logging.RunIDFromContext(ctx); ok {
		out.result.RunID = id
	}
	r.metrics.RecordFile(string(out.result.Status), out.result.Duration)
	return out
}

func (s *Summary) add(out outcome) {
	if out.resumed {
		s.Resumed++
		return
	}
	switch out.result.Status {
	case ledger.StatusOK:
		s.OK++
	case ledger.StatusEmpty:
		s.Empty++
	case ledger.StatusFailed:
		s.Failed++
	}
	s.Chunks += out.result.Chunks
	s.Skipped += out.result.Skipped
	s.Inserted += out.inserted
}

func failed(reason string, err error) outcome {
	return outcome{result: ledger.FileResult{Status: ledger.StatusFailed, Reason: fmt.Sprintf("%s: %v", reason, err)}}
}

func empty(reason string) outcome {
	return outcome{result: ledger.FileResult{Status: ledger.StatusEmpty, Reason: reason}}
}
