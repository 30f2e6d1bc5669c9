package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"speechline/internal/config"
	"speechline/internal/dataset"
	"speechline/internal/ledger"
	"speechline/internal/lexicon"
	"speechline/internal/metrics"
	"speechline/internal/offset"
	"speechline/internal/pipeline"
	"speechline/internal/segmenter"
	"speechline/internal/testsupport"
)

type segmentFixture struct {
	cfg   *config.Config
	store *ledger.Store
	input string
}

// newSegmentFixture lays out one good file and four that cannot be chunked:
// missing offsets, undecodable audio, empty offsets, and malformed offsets.
func newSegmentFixture(t *testing.T, opts ...testsupport.ConfigOption) segmentFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Segmenter.SilenceDuration = 0.2
	cfg.Audio.FFprobeBinary = filepath.Join(testsupport.BaseDir(cfg), "missing", "ffprobe")
	cfg.Audio.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing", "ffmpeg")

	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	good := filepath.Join(input, "en", "a.wav")
	testsupport.WriteWAV(t, good, 3)
	testsupport.WriteOffsets(t, good, testsupport.WordOffsets(), offset.KeyText)
	testsupport.WriteText(t, filepath.Join(input, "en", "a.txt"), testsupport.GroundTruth)

	testsupport.WriteWAV(t, filepath.Join(input, "en", "b.wav"), 1)

	bad := filepath.Join(input, "en", "c.wav")
	testsupport.WriteText(t, bad, "not a wav file")
	testsupport.WriteOffsets(t, bad, testsupport.WordOffsets(), offset.KeyText)

	testsupport.WriteWAV(t, filepath.Join(input, "en", "d.wav"), 1)
	testsupport.WriteText(t, filepath.Join(input, "en", "d.json"), "[]")

	testsupport.WriteWAV(t, filepath.Join(input, "en", "e.wav"), 1)
	testsupport.WriteText(t, filepath.Join(input, "en", "e.json"), "{not json")

	return segmentFixture{cfg: cfg, store: testsupport.MustOpenLedger(t, cfg), input: input}
}

func (f segmentFixture) run(t *testing.T, progress pipeline.ProgressFunc) (pipeline.Summary, error) {
	t.Helper()
	items, err := dataset.Discover(f.input, "wav")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	runner, err := pipeline.NewRunner(pipeline.Dependencies{
		Config:   f.cfg,
		Ledger:   f.store,
		Metrics:  metrics.New(),
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	seg, err := pipeline.NewSegmenter(f.cfg, nil)
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}
	return runner.Segment(context.Background(), items, seg, nil)
}

func TestSegmentBatch(t *testing.T) {
	f := newSegmentFixture(t)

	var (
		mu    sync.Mutex
		calls []pipeline.Progress
	)
	summary, err := f.run(t, func(p pipeline.Progress) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, p)
	})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if summary.Files != 5 || summary.OK != 1 || summary.Empty != 3 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.Chunks != 2 || summary.Skipped != 0 {
		t.Fatalf("expected 2 chunks, got %#v", summary)
	}
	if len(calls) != 5 || calls[len(calls)-1].Done != 5 || calls[len(calls)-1].Percent() != 100 {
		t.Fatalf("unexpected progress calls: %#v", calls)
	}

	out := f.cfg.Paths.OutputDir
	for _, name := range []string{"a-0.wav", "a-0.tsv", "a-1.wav", "a-1.tsv"} {
		if _, err := os.Stat(filepath.Join(out, "en", name)); err != nil {
			t.Fatalf("expected chunk %s: %v", name, err)
		}
	}

	if summary.ManifestPath != filepath.Join(out, dataset.ManifestFileName) {
		t.Fatalf("unexpected manifest path %q", summary.ManifestPath)
	}
	entries, err := dataset.ReadManifest(summary.ManifestPath)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 manifest entries, got %#v", entries)
	}
	if entries[0].Text != "HER RED UMBRELLA" || entries[1].Text != "IS JUST THE BEST" {
		t.Fatalf("unexpected manifest text: %q / %q", entries[0].Text, entries[1].Text)
	}
	if entries[0].LanguageCode != "en" || entries[0].Source != filepath.Join(f.input, "en", "a.wav") {
		t.Fatalf("unexpected manifest entry: %#v", entries[0])
	}
	if entries[0].Duration != 0.94 {
		t.Fatalf("expected first chunk of 0.94s, got %v", entries[0].Duration)
	}

	ledgerSummary, err := f.store.RunSummary(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("RunSummary failed: %v", err)
	}
	if ledgerSummary.Run.Status != ledger.RunCompleted || ledgerSummary.OK != 1 || ledgerSummary.Failed != 1 || ledgerSummary.Empty != 3 {
		t.Fatalf("unexpected ledger summary: %#v", ledgerSummary)
	}
	if ledgerSummary.Run.Segmenter != "silence" || ledgerSummary.Run.Command != pipeline.CommandSegment {
		t.Fatalf("unexpected run metadata: %#v", ledgerSummary.Run)
	}

	results, err := f.store.FileResults(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("FileResults failed: %v", err)
	}
	reasons := map[string]string{}
	for _, r := range results {
		reasons[filepath.Base(r.AudioPath)] = r.Reason
	}
	if reasons["b.wav"] != pipeline.ReasonOffsetsMissing || reasons["d.wav"] != segmenter.ReasonNoOffsets {
		t.Fatalf("unexpected reasons: %#v", reasons)
	}
}

func TestSegmentResumeSkipsCompletedFiles(t *testing.T) {
	f := newSegmentFixture(t, testsupport.WithResume())
	if _, err := f.run(t, nil); err != nil {
		t.Fatalf("first Segment failed: %v", err)
	}

	summary, err := f.run(t, nil)
	if err != nil {
		t.Fatalf("resumed Segment failed: %v", err)
	}
	if summary.Resumed != 4 || summary.Failed != 1 || summary.OK != 0 {
		t.Fatalf("expected 4 resumed and 1 retried failure, got %#v", summary)
	}
	entries, err := dataset.ReadManifest(filepath.Join(f.cfg.Paths.OutputDir, dataset.ManifestFileName))
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected resumed chunks kept in manifest, got %d", len(entries))
	}
}

func TestSegmentFilterEmptyTranscript(t *testing.T) {
	f := newSegmentFixture(t)
	f.cfg.Workflow.FilterEmptyTranscript = true
	summary, err := f.run(t, nil)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if summary.Files != 1 || summary.OK != 1 {
		t.Fatalf("expected only the transcribed file, got %#v", summary)
	}
}

func TestSegmentRefusesLockedOutput(t *testing.T) {
	f := newSegmentFixture(t)
	if err := os.MkdirAll(f.cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(f.cfg.Paths.OutputDir, pipeline.LockFileName))
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("could not take lock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	if _, err := f.run(t, nil); !errors.Is(err, pipeline.ErrOutputLocked) {
		t.Fatalf("expected ErrOutputLocked, got %v", err)
	}
}

func TestSegmentNoChunksWritesNoManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	testsupport.WriteWAV(t, filepath.Join(input, "en", "b.wav"), 1)

	items, err := dataset.Discover(input, "wav")
	if err != nil {
		t.Fatal(err)
	}
	runner, err := pipeline.NewRunner(pipeline.Dependencies{Config: cfg, Ledger: store})
	if err != nil {
		t.Fatal(err)
	}
	seg, _ := pipeline.NewSegmenter(cfg, nil)
	summary, err := runner.Segment(context.Background(), items, seg, nil)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if summary.ManifestPath != "" || summary.Empty != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, dataset.ManifestFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no manifest, stat err=%v", err)
	}
}

func TestSegmentCancelledContext(t *testing.T) {
	f := newSegmentFixture(t)
	items, _ := dataset.Discover(f.input, "wav")
	runner, _ := pipeline.NewRunner(pipeline.Dependencies{Config: f.cfg, Ledger: f.store})
	seg, _ := pipeline.NewSegmenter(f.cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := runner.Segment(ctx, items, seg, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	run, err := f.store.GetRun(context.Background(), summary.RunID)
	if err == nil && run.Status != ledger.RunFailed {
		t.Fatalf("expected failed run, got %#v", run)
	}
}

func TestSegmentPhonemeOverlapKeepsSeparators(t *testing.T) {
	for _, keep := range []bool{false, true} {
		t.Run(fmt.Sprintf("keep_whitespace=%v", keep), func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithSegmenter("phoneme_overlap"))
			cfg.Segmenter.KeepWhitespace = keep
			cfg.Segmenter.MinimumChunkDuration = 0
			cfg.Audio.FFprobeBinary = filepath.Join(testsupport.BaseDir(cfg), "missing", "ffprobe")
			cfg.Audio.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing", "ffmpeg")

			input := filepath.Join(testsupport.BaseDir(cfg), "input")
			wav := filepath.Join(input, "en", "a.wav")
			testsupport.WriteWAV(t, wav, 3)
			testsupport.WriteOffsets(t, wav, testsupport.PhonemeOffsets(), offset.KeyPhoneme)
			testsupport.WriteText(t, filepath.Join(input, "en", "a.txt"), testsupport.GroundTruth)

			items, err := dataset.Discover(input, "wav")
			if err != nil {
				t.Fatalf("Discover failed: %v", err)
			}
			runner, err := pipeline.NewRunner(pipeline.Dependencies{
				Config:  cfg,
				Ledger:  testsupport.MustOpenLedger(t, cfg),
				Metrics: metrics.New(),
			})
			if err != nil {
				t.Fatalf("NewRunner failed: %v", err)
			}
			seg, err := pipeline.NewSegmenter(cfg, testsupport.SampleLexicon())
			if err != nil {
				t.Fatalf("NewSegmenter failed: %v", err)
			}
			summary, err := runner.Segment(context.Background(), items, seg, nil)
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if summary.OK != 1 || summary.Empty != 0 || summary.Chunks != 3 {
				t.Fatalf("expected 3 chunks from one file, got %#v", summary)
			}

			entries, err := dataset.ReadManifest(summary.ManifestPath)
			if err != nil {
				t.Fatalf("ReadManifest failed: %v", err)
			}
			var texts []string
			for _, e := range entries {
				texts = append(texts, e.Text)
			}
			want := []string{"ɹ ɛ d", "ɪ z dʒ ʌ s t", "b ɛ s t"}
			if !reflect.DeepEqual(texts, want) {
				t.Fatalf("manifest text = %q, want %q", texts, want)
			}
		})
	}
}

func TestNewSegmenterRequiresLexiconForPhonemeOverlap(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSegmenter("phoneme_overlap"))
	if _, err := pipeline.NewSegmenter(cfg, nil); !errors.Is(err, pipeline.ErrLexiconRequired) {
		t.Fatalf("expected ErrLexiconRequired, got %v", err)
	}

	if _, err := pipeline.NewSegmenter(cfg, lexicon.New(nil)); !errors.Is(err, pipeline.ErrLexiconRequired) {
		t.Fatalf("expected ErrLexiconRequired for empty lexicon, got %v", err)
	}

	seg, err := pipeline.NewSegmenter(cfg, testsupport.SampleLexicon())
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}
	if seg.Kind() != segmenter.KindPhonemeOverlap {
		t.Fatalf("unexpected kind %q", seg.Kind())
	}
}

func TestNewClassifier(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c, err := pipeline.NewClassifier(cfg)
	if err != nil || c != nil {
		t.Fatalf("expected no classifier when disabled, got %v (%v)", c, err)
	}
	cfg.Noise.Enabled = true
	c, err = pipeline.NewClassifier(cfg)
	if err != nil || c == nil {
		t.Fatalf("expected energy classifier, got %v (%v)", c, err)
	}
	cfg.Noise.Classifier = "yamnet"
	if _, err := pipeline.NewClassifier(cfg); err == nil {
		t.Fatal("expected error for unsupported classifier")
	}
}

func TestLoadLexiconMergesConfiguredFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLexiconFile(map[string][]string{"her": {"h ɚ"}}))
	extra := filepath.Join(testsupport.BaseDir(cfg), "extra.json")
	testsupport.WriteText(t, extra, `{"her": ["ɜ ɹ"], "red": ["ɹ ɛ d"]}`)

	lex, err := pipeline.LoadLexicon(cfg, extra)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	variants, ok := lex.Realizations("her")
	if !ok || len(variants) != 2 || variants[0] != "h ɚ" {
		t.Fatalf("unexpected her variants: %#v", variants)
	}
	if !lex.Contains("red") {
		t.Fatal("expected red from extra lexicon")
	}
}
