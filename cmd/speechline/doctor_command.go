package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"speechline/internal/config"
	"speechline/internal/deps"
	"speechline/internal/ledger"
	"speechline/internal/pipeline"
)

const versionProbeTimeout = 5 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external decoders, lexicons, and the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, sectionHeader("Dependencies", colorize))
			statuses := deps.CheckBinaries(deps.AudioRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
			for _, line := range dependencyLines(cmd.Context(), statuses, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, sectionHeader("Configuration", colorize))
			lines, problems := configLines(cfg, colorize)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				problems = append(problems, fmt.Sprintf("%d required dependencies missing", len(missing)))
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}
			return nil
		},
	}
}

func dependencyLines(ctx context.Context, statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := fmt.Sprintf("Ready (%s)", dep.Path)
			probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
			if version, err := deps.Version(probeCtx, dep.Command); err == nil {
				message = fmt.Sprintf("%s %s", message, version)
			}
			cancel()
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
			detail += " (only WAV input can be read)"
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

// configLines reports the state of configured paths. problems lists the
// entries that would make segment or align fail.
func configLines(cfg *config.Config, colorize bool) ([]string, []string) {
	var lines, problems []string

	if info, err := os.Stat(cfg.Paths.OutputDir); err != nil || !info.IsDir() {
		lines = append(lines, renderStatusLine("Output dir", statusError, fmt.Sprintf("%s not available", cfg.Paths.OutputDir), colorize))
		problems = append(problems, "output directory unavailable")
	} else {
		lines = append(lines, renderStatusLine("Output dir", statusOK, cfg.Paths.OutputDir, colorize))
	}

	if store, err := ledger.Open(cfg.Paths.LedgerPath); err != nil {
		lines = append(lines, renderStatusLine("Ledger", statusError, err.Error(), colorize))
		problems = append(problems, "ledger unavailable")
	} else {
		_ = store.Close()
		lines = append(lines, renderStatusLine("Ledger", statusOK, cfg.Paths.LedgerPath, colorize))
	}

	lex, err := pipeline.LoadLexicon(cfg)
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Lexicon", statusError, err.Error(), colorize))
		problems = append(problems, "lexicon unreadable")
	case lex.Len() == 0:
		lines = append(lines, renderStatusLine("Lexicon", statusWarn, "none configured (phoneme_overlap and align need one)", colorize))
	default:
		lines = append(lines, renderStatusLine("Lexicon", statusOK, fmt.Sprintf("%d words from %d files", lex.Len(), len(cfg.Lexicon.Paths)), colorize))
	}

	lines = append(lines, renderStatusLine("Segmenter", statusInfo, cfg.Segmenter.Type, colorize))
	noise := "disabled"
	if cfg.Noise.Enabled {
		noise = cfg.Noise.Classifier
	}
	lines = append(lines, renderStatusLine("Noise tagging", statusInfo, noise, colorize))
	lines = append(lines, renderStatusLine("Resume", statusInfo, yesNo(cfg.Workflow.Resume), colorize))
	return lines, problems
}
