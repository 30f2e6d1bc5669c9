package main

import (
	"github.com/spf13/cobra"

	"speechline/internal/pipeline"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Insert punctuation tokens into phoneme offsets",
		Long: "Aligns each transcript's punctuation against the phoneme offsets beside the\n" +
			"audio file and writes {stem}" + pipeline.AlignedSuffix + " alongside it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
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
			aligners, err := pipeline.NewAlignerSet(cfg, lex)
			if err != nil {
				return err
			}

			runner, progress, err := ctx.newRunner(cmd, cfg, "align", input, len(items))
			if err != nil {
				return err
			}
			summary, err := runner.Align(cmd.Context(), items, aligners)
			progress.finish()
			if err != nil {
				return err
			}
			return printSummary(cmd, pipeline.CommandAlign, summary, flags.json)
		},
	}

	flags.register(cmd, false)
	return cmd
}
