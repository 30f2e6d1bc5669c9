package main

import (
	"github.com/spf13/cobra"

	"speechline/internal/pipeline"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	flags := &batchFlags{}
	var segmenterType string
	var noise bool
	var filterEmpty bool

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Cut recognizer output into transcript-aligned audio chunks",
		Long: "Reads the offsets JSON beside each audio file, segments it with the configured\n" +
			"strategy, and writes {output}/{lang}/{id}-{n}.wav/.tsv chunks plus\n" +
			"audio_segment_manifest.json. Results are recorded in the run ledger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("segmenter") {
				cfg.Segmenter.Type = segmenterType
			}
			if cmd.Flags().Changed("noise") {
				cfg.Noise.Enabled = noise
			}
			if cmd.Flags().Changed("filter-empty") {
				cfg.Workflow.FilterEmptyTranscript = filterEmpty
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			items, input, err := flags.loadItems(cfg)
			if err != nil {
				return err
			}
			lex, err := pipeline.LoadLexicon(cfg, flags.lexicons...)
			if err != nil {
				return err
			}
			seg, err := pipeline.NewSegmenter(cfg, lex)
			if err != nil {
				return err
			}
			classifier, err := pipeline.NewClassifier(cfg)
			if err != nil {
				return err
			}

			runner, progress, err := ctx.newRunner(cmd, cfg, "segment", input, len(items))
			if err != nil {
				return err
			}
			summary, err := runner.Segment(cmd.Context(), items, seg, classifier)
			progress.finish()
			if err != nil {
				return err
			}
			return printSummary(cmd, pipeline.CommandSegment, summary, flags.json)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&segmenterType, "segmenter", "s", "", "Override segmenter.type (silence, word_overlap, phoneme_overlap)")
	cmd.Flags().BoolVar(&noise, "noise", false, "Tag untranscribed gaps with the noise classifier")
	cmd.Flags().BoolVar(&filterEmpty, "filter-empty", false, "Drop items whose ground truth is empty before segmenting")
	return cmd
}
