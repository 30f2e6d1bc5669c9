package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"speechline/internal/pipeline"
	"speechline/internal/scoring"
	"speechline/internal/textutil"
)

func newPERCommand(ctx *commandContext) *cobra.Command {
	var lexicons []string
	var referencesPath string
	var predictionsPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "per",
		Short: "Score phoneme predictions against reference transcripts",
		Long: "Computes the phoneme error rate of each prediction against the lexicon\n" +
			"pronunciation of its reference words. Both files hold one item per entry,\n" +
			"either as a JSON array or as JSON lines. A reference is a transcript string\n" +
			"or a list of words; a prediction is a space-separated phoneme string or a\n" +
			"list of phonemes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lex, err := pipeline.LoadLexicon(cfg, lexicons...)
			if err != nil {
				return err
			}
			scorer, err := scoring.New(lex)
			if err != nil {
				return err
			}
			references, err := readSequenceFile(referencesPath, textutil.Words)
			if err != nil {
				return fmt.Errorf("references: %w", err)
			}
			predictions, err := readSequenceFile(predictionsPath, strings.Fields)
			if err != nil {
				return fmt.Errorf("predictions: %w", err)
			}

			report, err := scorePredictions(scorer, references, predictions)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPERReport(report))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&lexicons, "lexicon", nil, "Lexicon JSON file (repeatable, merged after [lexicon] paths)")
	cmd.Flags().StringVar(&referencesPath, "references", "", "Reference transcripts (JSON array or JSONL)")
	cmd.Flags().StringVar(&predictionsPath, "predictions", "", "Predicted phoneme sequences (JSON array or JSONL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("references")
	_ = cmd.MarkFlagRequired("predictions")
	return cmd
}

type perItem struct {
	Index    int      `json:"index"`
	Words    []string `json:"words"`
	Errors   int      `json:"errors"`
	Total    int      `json:"total"`
	Rate     float64  `json:"per"`
	Phonemes []string `json:"prediction"`
}

type perReport struct {
	Items  []perItem `json:"items"`
	Errors int       `json:"errors"`
	Total  int       `json:"total"`
	Rate   float64   `json:"per"`
}

func scorePredictions(scorer *scoring.PhonemeErrorRate, references, predictions [][]string) (perReport, error) {
	rate, err := scorer.Compute(references, predictions)
	if err != nil {
		return perReport{}, err
	}
	report := perReport{Rate: rate, Items: make([]perItem, 0, len(references))}
	for i := range references {
		m, err := scorer.ComputeMeasures(references[i], predictions[i])
		if err != nil {
			return perReport{}, fmt.Errorf("item %d: %w", i, err)
		}
		report.Errors += m.Errors
		report.Total += m.Total
		report.Items = append(report.Items, perItem{
			Index:    i,
			Words:    references[i],
			Errors:   m.Errors,
			Total:    m.Total,
			Rate:     m.Rate(),
			Phonemes: predictions[i],
		})
	}
	return report, nil
}

func renderPERReport(report perReport) string {
	rows := make([][]string, 0, len(report.Items)+1)
	for _, item := range report.Items {
		rows = append(rows, []string{
			strconv.Itoa(item.Index),
			strings.Join(item.Words, " "),
			strconv.Itoa(item.Errors),
			strconv.Itoa(item.Total),
			formatRate(item.Rate),
		})
	}
	rows = append(rows, []string{"all", "", strconv.Itoa(report.Errors), strconv.Itoa(report.Total), formatRate(report.Rate)})
	return renderTable(
		[]string{"#", "Reference", "Errors", "Phonemes", "PER"},
		rows,
		1, 3, 4, 5,
	)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 4, 64)
}

// readSequenceFile reads a single JSON array of items or a stream of JSON
// values, one item each. A file holding exactly one array is always read as a
// batch, so a lone token list must be written as [[...]]. String items are
// tokenized with split.
func readSequenceFile(path string, split func(string) []string) ([][]string, error) {
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	var values []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		values = append(values, raw)
	}
	if len(values) == 1 {
		var batch []json.RawMessage
		if err := json.Unmarshal(values[0], &batch); err == nil {
			values = batch
		}
	}

	sequences := make([][]string, 0, len(values))
	for i, raw := range values {
		seq, err := decodeSequence(raw, split)
		if err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", path, i, err)
		}
		sequences = append(sequences, seq)
	}
	return sequences, nil
}

func decodeSequence(raw json.RawMessage, split func(string) []string) ([]string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return split(s), nil
	}
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, errors.New("expected string or list of strings")
	}
	return tokens, nil
}
