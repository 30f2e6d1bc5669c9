package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speechline/internal/config"
	"speechline/internal/lexicon"
)

func newLexiconCommand() *cobra.Command {
	lexCmd := &cobra.Command{
		Use:         "lexicon",
		Short:       "Inspect and merge pronunciation lexicons",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	lexCmd.AddCommand(newLexiconCheckCommand())
	lexCmd.AddCommand(newLexiconMergeCommand())
	return lexCmd
}

func newLexiconCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify that every word's pronunciation variants share a phoneme count",
		Long: "Merges the given lexicon files and checks the uniform-length requirement\n" +
			"of phoneme error rate scoring. Segmentation does not need it.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, err := loadLexiconArgs(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			variants := 0
			for _, word := range lex.Words() {
				r, _ := lex.Realizations(word)
				variants += len(r)
			}
			fmt.Fprintln(out, renderStatusLine("Words", statusInfo, fmt.Sprintf("%d (%d pronunciations)", lex.Len(), variants), colorize))
			if err := lex.ValidateUniformLength(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Uniform length", statusError, err.Error(), colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Uniform length", statusOK, "usable for PER scoring", colorize))
			return nil
		},
	}
}

func newLexiconMergeCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge FILE...",
		Short: "Merge lexicon files into one, keeping every distinct pronunciation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, err := loadLexiconArgs(args)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" {
				return lex.Encode(cmd.OutOrStdout())
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return err
			}
			if err := lex.WriteFile(expanded); err != nil {
				return fmt.Errorf("write lexicon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d words to %s\n", lex.Len(), expanded)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (stdout when omitted)")
	return cmd
}

func loadLexiconArgs(args []string) (*lexicon.Lexicon, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		expanded, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return nil, err
		}
		paths = append(paths, expanded)
	}
	return lexicon.LoadFiles(paths)
}
