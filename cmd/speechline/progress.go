package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"speechline/internal/pipeline"
)

// progressReporter draws a terminal bar while a batch runs.
type progressReporter struct {
	bar *progressbar.ProgressBar
}

// newProgressReporter returns nil unless stderr is an interactive terminal.
func newProgressReporter(cmd *cobra.Command, label string, total int) *progressReporter {
	if total == 0 || !shouldColorize(cmd.ErrOrStderr()) {
		return nil
	}
	return newProgressReporterTo(cmd.ErrOrStderr(), label, total)
}

func newProgressReporterTo(w io.Writer, label string, total int) *progressReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar}
}

// Func adapts the reporter to the pipeline callback. A nil reporter yields nil.
func (p *progressReporter) Func() pipeline.ProgressFunc {
	if p == nil {
		return nil
	}
	return func(update pipeline.Progress) {
		verb := string(update.Status)
		if update.Resumed {
			verb = "resumed"
		}
		p.bar.Describe(fmt.Sprintf("%s %s", verb, filepath.Base(update.Audio)))
		_ = p.bar.Add(1)
	}
}

func (p *progressReporter) finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
