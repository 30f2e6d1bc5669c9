package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speechline/internal/dataset"
	"speechline/internal/offset"
	"speechline/internal/pipeline"
	"speechline/internal/testsupport"
)

func decodeSummary(t *testing.T, out string) summaryJSON {
	t.Helper()
	var summary summaryJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	return summary
}

func writeSegmentInput(t *testing.T, base string) (string, string) {
	t.Helper()
	input := filepath.Join(base, "input")
	audio := filepath.Join(input, "en", "a.wav")
	testsupport.WriteWAV(t, audio, 3)
	testsupport.WriteOffsets(t, audio, testsupport.WordOffsets(), offset.KeyText)
	testsupport.WriteText(t, filepath.Join(input, "en", "a.txt"), testsupport.GroundTruth)
	testsupport.WriteWAV(t, filepath.Join(input, "en", "b.wav"), 1)
	return input, audio
}

func TestSegmentCommandRecordsRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Segmenter.SilenceDuration = 0.2
	env.writeConfig(t)
	input, audio := writeSegmentInput(t, env.baseDir)

	out, _, err := runCLI(t, []string{"segment", "--input", input, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	summary := decodeSummary(t, out)
	if summary.Command != pipeline.CommandSegment || summary.Files != 2 || summary.OK != 1 || summary.Empty != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Chunks != 2 {
		t.Fatalf("got %d chunks want 2", summary.Chunks)
	}
	wantManifest := filepath.Join(env.cfg.Paths.OutputDir, dataset.ManifestFileName)
	if summary.ManifestPath != wantManifest {
		t.Fatalf("got manifest %q want %q", summary.ManifestPath, wantManifest)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "en", "a-1.wav")); err != nil {
		t.Fatalf("expected second chunk: %v", err)
	}

	out, _, err = runCLI(t, []string{"runs", "show", summary.RunID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	var detail runDetailView
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode run: %v\n%s", err, out)
	}
	if detail.Run.Command != pipeline.CommandSegment || detail.Run.Status != "completed" || detail.Run.Input != input {
		t.Fatalf("unexpected run %+v", detail.Run)
	}
	if detail.Files != 2 || detail.Chunks != 2 || len(detail.Results) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	statuses := map[string]string{}
	for _, r := range detail.Results {
		statuses[r.Audio] = r.Status
	}
	if statuses[audio] != "ok" {
		t.Fatalf("unexpected result statuses %v", statuses)
	}

	out, _, err = runCLI(t, []string{"segment", "--input", input, "--resume", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("resumed segment: %v", err)
	}
	resumed := decodeSummary(t, out)
	if resumed.Resumed != 2 || resumed.OK != 0 {
		t.Fatalf("expected both files resumed, got %+v", resumed)
	}

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, summary.RunID)
	requireContains(t, out, resumed.RunID)

	out, _, err = runCLI(t, []string{"runs", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show latest: %v", err)
	}
	requireContains(t, out, resumed.RunID)

	out, _, err = runCLI(t, []string{"logs", "--run", summary.RunID, "--lines", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, `"event_type":"segment_finished"`)
	if strings.Contains(out, resumed.RunID) {
		t.Fatalf("expected records of one run only, got %q", out)
	}
}

func TestSegmentCommandTableAndOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	input, _ := writeSegmentInput(t, env.baseDir)
	output := filepath.Join(env.baseDir, "elsewhere")

	out, stderr, err := runCLI(t, []string{"segment", "--input", input, "--output", output, "--workers", "1", "--log-format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	requireContains(t, out, "segment summary")
	requireContains(t, out, "Chunks")
	requireContains(t, stderr, `"event_type":"segment_finished"`)
	if _, err := os.Stat(filepath.Join(output, dataset.ManifestFileName)); err != nil {
		t.Fatalf("expected manifest under --output: %v", err)
	}
}

func TestSegmentCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"segment"}, env.configPath); err == nil {
		t.Fatal("expected --input to be required")
	}

	empty := filepath.Join(env.baseDir, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"segment", "--input", empty}, env.configPath); !errors.Is(err, dataset.ErrNoInput) {
		t.Fatalf("got %v want ErrNoInput", err)
	}

	input, _ := writeSegmentInput(t, env.baseDir)
	_, _, err := runCLI(t, []string{"segment", "--input", input, "--segmenter", "phoneme_overlap"}, env.configPath)
	if !errors.Is(err, pipeline.ErrLexiconRequired) {
		t.Fatalf("got %v want ErrLexiconRequired", err)
	}
	if _, _, err := runCLI(t, []string{"segment", "--input", input, "--segmenter", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected an unsupported segmenter to fail")
	}
}

func TestAlignCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	lexPath := filepath.Join(env.baseDir, "align-lexicon.json")
	testsupport.WriteText(t, lexPath, `{"her": ["h ɚ"], "red": ["ɹ ɛ d"], "umbrella": ["ʌ m b ɹ ɛ l ə"]}`)

	input := filepath.Join(env.baseDir, "input")
	audio := filepath.Join(input, "en", "punct.wav")
	testsupport.WriteWAV(t, audio, 1)
	testsupport.WriteOffsets(t, audio, []offset.Offset{
		{Unit: "h", Start: 0.0, End: 0.2},
		{Unit: "ɚ", Start: 0.24, End: 0.28},
		{Unit: "i", Start: 0.42, End: 0.44},
		{Unit: "d", Start: 0.5, End: 0.54},
		{Unit: "d", Start: 0.5, End: 0.54},
		{Unit: "ʌ", Start: 0.64, End: 0.66},
		{Unit: "m", Start: 0.7, End: 0.74},
		{Unit: "b", Start: 0.78, End: 0.82},
		{Unit: "ɹ", Start: 0.84, End: 0.9},
		{Unit: "ɛ", Start: 0.92, End: 0.94},
		{Unit: "l", Start: 1.0, End: 1.04},
		{Unit: "ə", Start: 1.08, End: 1.12},
	}, offset.KeyPhoneme)
	testsupport.WriteText(t, filepath.Join(input, "en", "punct.txt"), "Her red, umbrella.")

	out, _, err := runCLI(t, []string{"align", "--input", input, "--lexicon", lexPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	summary := decodeSummary(t, out)
	if summary.Command != pipeline.CommandAlign || summary.OK != 1 || summary.Inserted != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	aligned, key, err := offset.ReadJSON(pipeline.AlignedPath(audio))
	if err != nil {
		t.Fatalf("read aligned offsets: %v", err)
	}
	if key != offset.KeyPhoneme || len(aligned) != 14 {
		t.Fatalf("got key %q and %d offsets", key, len(aligned))
	}

	if _, _, err := runCLI(t, []string{"align", "--input", input}, env.configPath); !errors.Is(err, pipeline.ErrLexiconRequired) {
		t.Fatalf("got %v want ErrLexiconRequired", err)
	}
}
