package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"speechline/internal/config"
	"speechline/internal/dataset"
	"speechline/internal/metrics"
	"speechline/internal/pipeline"
)

// batchFlags are shared by segment and align.
type batchFlags struct {
	input    string
	output   string
	lexicons []string
	workers  int
	resume   bool
	json     bool
}

func (f *batchFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Dataset directory ({lang}/*.wav) or manifest (JSON array or JSONL)")
	if withOutput {
		cmd.Flags().StringVarP(&f.output, "output", "o", "", "Override paths.output_dir")
	}
	cmd.Flags().StringArrayVar(&f.lexicons, "lexicon", nil, "Additional lexicon JSON file (repeatable)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Override workflow.workers")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "Skip files already completed by an earlier run")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the summary as JSON")
	_ = cmd.MarkFlagRequired("input")
}

// apply copies changed flags onto cfg and revalidates it.
func (f *batchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("output") {
		expanded, err := config.ExpandPath(strings.TrimSpace(f.output))
		if err != nil {
			return err
		}
		cfg.Paths.OutputDir = expanded
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workflow.Workers = f.workers
	}
	if cmd.Flags().Changed("resume") {
		cfg.Workflow.Resume = f.resume
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.EnsureDirectories()
}

// loadItems returns the dataset items and the resolved input path.
func (f *batchFlags) loadItems(cfg *config.Config) ([]dataset.Item, string, error) {
	input, err := config.ExpandPath(strings.TrimSpace(f.input))
	if err != nil {
		return nil, "", err
	}
	items, err := dataset.Load(input, cfg.Workflow.AudioExtension)
	if err != nil {
		return nil, "", err
	}
	return items, input, nil
}

// newRunner wires the pipeline with the ledger, a metrics recorder, the
// command logger, and, on a terminal, a progress bar.
func (c *commandContext) newRunner(cmd *cobra.Command, cfg *config.Config, label, input string, total int) (*pipeline.Runner, *progressReporter, error) {
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := c.ledger()
	if err != nil {
		return nil, nil, err
	}
	progress := newProgressReporter(cmd, label, total)
	runner, err := pipeline.NewRunner(pipeline.Dependencies{
		Config:   cfg,
		Ledger:   store,
		Metrics:  metrics.New(),
		Logger:   logger,
		Progress: progress.Func(),
		Input:    input,
	})
	if err != nil {
		return nil, nil, err
	}
	return runner, progress, nil
}

type summaryJSON struct {
	Command        string  `json:"command"`
	RunID          string  `json:"run_id"`
	Files          int     `json:"files"`
	OK             int     `json:"ok"`
	Empty          int     `json:"empty"`
	Failed         int     `json:"failed"`
	Resumed        int     `json:"resumed"`
	Chunks         int     `json:"chunks,omitempty"`
	Skipped        int     `json:"skipped,omitempty"`
	Inserted       int     `json:"inserted,omitempty"`
	ManifestPath   string  `json:"manifest_path,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func printSummary(cmd *cobra.Command, command string, summary pipeline.Summary, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), summaryJSON{
			Command:        command,
			RunID:          summary.RunID,
			Files:          summary.Files,
			OK:             summary.OK,
			Empty:          summary.Empty,
			Failed:         summary.Failed,
			Resumed:        summary.Resumed,
			Chunks:         summary.Chunks,
			Skipped:        summary.Skipped,
			Inserted:       summary.Inserted,
			ManifestPath:   summary.ManifestPath,
			ElapsedSeconds: summary.Elapsed.Seconds(),
		})
	}

	pairs := [][2]string{
		{"Run", summary.RunID},
		{"Files", strconv.Itoa(summary.Files)},
		{"OK", strconv.Itoa(summary.OK)},
		{"Empty", strconv.Itoa(summary.Empty)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Resumed", strconv.Itoa(summary.Resumed)},
	}
	switch command {
	case pipeline.CommandSegment:
		pairs = append(pairs,
			[2]string{"Chunks", strconv.Itoa(summary.Chunks)},
			[2]string{"Skipped chunks", strconv.Itoa(summary.Skipped)},
		)
		manifest := summary.ManifestPath
		if manifest == "" {
			manifest = "(none)"
		}
		pairs = append(pairs, [2]string{"Manifest", manifest})
	case pipeline.CommandAlign:
		pairs = append(pairs, [2]string{"Punctuation inserted", strconv.Itoa(summary.Inserted)})
	}
	pairs = append(pairs, [2]string{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()})

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintln(out, sectionHeader(command+" summary", colorize))
	fmt.Fprintln(out, renderKeyValues(pairs))
	return nil
}
