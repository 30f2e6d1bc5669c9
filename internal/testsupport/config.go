package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"speechline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns defaults rooted in t.TempDir with two workers.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "chunks")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "state", "ledger.db")
	cfgVal.Workflow.Workers = 2

	b := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// WithSegmenter selects the segmenter type.
func WithSegmenter(kind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Segmenter.Type = kind
	}
}

// WithNoise enables noise tagging with the energy classifier.
func WithNoise(minimumEmptyDuration float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Noise.Enabled = true
		b.cfg.Noise.MinimumEmptyDuration = minimumEmptyDuration
	}
}

// WithResume turns on ledger-driven resume.
func WithResume() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.Resume = true
	}
}

// WithLexiconFile writes entries as JSON under the base directory and lists it in
// the config.
func WithLexiconFile(entries map[string][]string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "lexicon.json")
		data, err := json.Marshal(entries)
		if err != nil {
			b.t.Fatalf("encode lexicon: %v", err)
		}
		WriteText(b.t, path, string(data))
		b.cfg.Lexicon.Paths = append(b.cfg.Lexicon.Paths, path)
	}
}

// WithStubbedBinaries puts shell stubs that print "<name> version test" first
// on PATH. With no names, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		bin := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteText(b.t, filepath.Join(bin, name), "#!/bin/sh\necho \"$0 version test\"\n")
			if err := os.Chmod(filepath.Join(bin, name), 0o755); err != nil {
				b.t.Fatalf("chmod stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
