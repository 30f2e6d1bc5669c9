package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"speechline/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ledger()
			if err != nil {
				return err
			}
			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd.OutOrStdout(), views)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Command,
					runStatusKind(run.Status).paint(string(run.Status), colorize),
					formatTime(run.StartedAt),
					formatRunDuration(run),
					run.Input,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Command", "Status", "Started", "Elapsed", "Input"},
				rows,
				5,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [RUN_ID]",
		Short: "Summarize a run and its per-file results (latest run when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ledger()
			if err != nil {
				return err
			}
			runID := ""
			if len(args) == 1 {
				runID = strings.TrimSpace(args[0])
			} else {
				latest, err := store.Runs(cmd.Context(), 1)
				if err != nil {
					return err
				}
				if len(latest) == 0 {
					return errors.New("no runs recorded")
				}
				runID = latest[0].ID
			}

			summary, err := store.RunSummary(cmd.Context(), runID)
			if err != nil {
				return err
			}
			results, err := store.FileResults(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if asJSON {
				view := runDetailView{
					Run:     newRunView(summary.Run),
					Files:   summary.Files,
					OK:      summary.OK,
					Empty:   summary.Empty,
					Failed:  summary.Failed,
					Chunks:  summary.Chunks,
					Skipped: summary.Skipped,
					Results: make([]fileResultView, 0, len(results)),
				}
				for _, r := range results {
					view.Results = append(view.Results, fileResultView{
						Audio:      r.AudioPath,
						Status:     string(r.Status),
						Segments:   r.Segments,
						Chunks:     r.Chunks,
						Skipped:    r.Skipped,
						Reason:     r.Reason,
						DurationMS: r.Duration.Milliseconds(),
					})
				}
				return writeJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			run := summary.Run
			fmt.Fprintln(out, sectionHeader("Run "+run.ID, colorize))
			pairs := [][2]string{
				{"Command", run.Command},
				{"Status", string(run.Status)},
				{"Started", formatTime(run.StartedAt)},
				{"Elapsed", formatRunDuration(run)},
				{"Input", run.Input},
			}
			if run.Segmenter != "" {
				pairs = append(pairs, [2]string{"Segmenter", run.Segmenter})
			}
			if run.OutputDir != "" {
				pairs = append(pairs, [2]string{"Output", run.OutputDir})
			}
			pairs = append(pairs,
				[2]string{"Config", run.ConfigSummary},
				[2]string{"Files", strconv.Itoa(summary.Files)},
				[2]string{"OK", strconv.Itoa(summary.OK)},
				[2]string{"Empty", strconv.Itoa(summary.Empty)},
				[2]string{"Failed", strconv.Itoa(summary.Failed)},
				[2]string{"Chunks", strconv.Itoa(summary.Chunks)},
				[2]string{"Skipped chunks", strconv.Itoa(summary.Skipped)},
			)
			fmt.Fprintln(out, renderKeyValues(pairs))

			if len(results) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					filepath.Base(r.AudioPath),
					fileStatusKind(r.Status).paint(string(r.Status), colorize),
					strconv.Itoa(r.Segments),
					strconv.Itoa(r.Chunks),
					r.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Audio", "Status", "Segments", "Chunks", "Reason"},
				rows,
				3, 4,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

type runView struct {
	ID         string `json:"id"`
	Command    string `json:"command"`
	Status     string `json:"status"`
	Segmenter  string `json:"segmenter,omitempty"`
	Input      string `json:"input,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`
	Config     string `json:"config,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func newRunView(run ledger.Run) runView {
	view := runView{
		ID:        run.ID,
		Command:   run.Command,
		Status:    string(run.Status),
		Segmenter: run.Segmenter,
		Input:     run.Input,
		OutputDir: run.OutputDir,
		Config:    run.ConfigSummary,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		view.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return view
}

type fileResultView struct {
	Audio      string `json:"audio"`
	Status     string `json:"status"`
	Segments   int    `json:"segments"`
	Chunks     int    `json:"chunks"`
	Skipped    int    `json:"skipped"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type runDetailView struct {
	Run     runView          `json:"run"`
	Files   int              `json:"files"`
	OK      int              `json:"ok"`
	Empty   int              `json:"empty"`
	Failed  int              `json:"failed"`
	Chunks  int              `json:"chunks"`
	Skipped int              `json:"skipped"`
	Results []fileResultView `json:"results"`
}

func runStatusKind(status ledger.RunStatus) statusKind {
	switch status {
	case ledger.RunCompleted:
		return statusOK
	case ledger.RunFailed:
		return statusError
	default:
		return statusWarn
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatRunDuration(run ledger.Run) string {
	if run.FinishedAt.IsZero() || run.StartedAt.IsZero() {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
