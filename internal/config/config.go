package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output, log, and ledger locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Segmenter selects the chunking strategy and its thresholds.
type Segmenter struct {
	Type                 string  `toml:"type"`
	SilenceDuration      float64 `toml:"silence_duration"`
	MinimumChunkDuration float64 `toml:"minimum_chunk_duration"`
	// PhonemeMatch is "substring" or "exact".
	PhonemeMatch   string `toml:"phoneme_match"`
	KeepWhitespace bool   `toml:"keep_whitespace"`
}

// Lexicon lists pronunciation override files merged in order.
type Lexicon struct {
	Paths []string `toml:"paths"`
}

// Noise contains configuration for tagging untranscribed gaps.
type Noise struct {
	Enabled              bool    `toml:"enabled"`
	MinimumEmptyDuration float64 `toml:"minimum_empty_duration"`
	Threshold            float64 `toml:"threshold"`
	Classifier           string  `toml:"classifier"`
	EnergyFloorDB        float64 `toml:"energy_floor_db"`
}

// Aligner contains configuration for punctuation forced alignment.
type Aligner struct {
	Punctuations   []string `toml:"punctuations"`
	MaxCandidates  int      `toml:"max_candidates"`
	StdevTolerance float64  `toml:"stdev_tolerance"`
}

// Audio names the external decoders used for non-WAV input.
type Audio struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Workflow contains batch execution settings.
type Workflow struct {
	Workers               int    `toml:"workers"`
	AudioExtension        string `toml:"audio_extension"`
	Resume                bool   `toml:"resume"`
	FilterEmptyTranscript bool   `toml:"filter_empty_transcript"`
}

// Metrics contains the Prometheus textfile export location. Empty disables it.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for speechline.
//
// Configuration sections by subsystem:
//   - Paths: chunk output, logs, and the run ledger
//   - Segmenter: strategy selection and chunk thresholds
//   - Lexicon: pronunciation override files
//   - Noise: gap tagging and the classifier
//   - Aligner: punctuation forced alignment limits
//   - Audio: ffmpeg/ffprobe binaries
//   - Workflow: worker count, discovery, and resume
//   - Metrics: Prometheus textfile export
//   - Logging: log format, level, and rotation
type Config struct {
	Paths     Paths     `toml:"paths"`
	Segmenter Segmenter `toml:"segmenter"`
	Lexicon   Lexicon   `toml:"lexicon"`
	Noise     Noise     `toml:"noise"`
	Aligner   Aligner   `toml:"aligner"`
	Audio     Audio     `toml:"audio"`
	Workflow  Workflow  `toml:"workflow"`
	Metrics   Metrics   `toml:"metrics"`
	Logging   Logging   `toml:"logging"`
}

// ErrConfigExists is returned by CreateSample when the target is present and
// overwrite is false.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigPath is the user config location with ~ expanded.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or searches the default locations when path
// is empty, and returns the normalized, validated result with the resolved
// path. exists reports whether a file was read; when false the defaults are
// used. Unknown keys are rejected.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}
	loaded := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := decodeStrict(data, &loaded); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeStrict(data []byte, into *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(into)
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		return fmt.Errorf("unknown keys:\n%s", strict.String())
	}
	return err
}

// locate resolves an explicit path, or falls back to the user config and then
// ./speechline.toml. A missing explicit file is not an error.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	user, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	project, err := filepath.Abs("speechline.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{user, project} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return user, false, nil
}

// EnsureDirectories creates the output and log directories plus the
// ledger's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.LogDir}
	if c.Paths.LedgerPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LedgerPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for non-WAV decoding.
func (c *Config) FFmpegBinary() string { return c.Audio.FFmpegBinary }

// FFprobeBinary returns the ffprobe executable used to inspect inputs.
func (c *Config) FFprobeBinary() string { return c.Audio.FFprobeBinary }

// ExpandPath resolves a leading ~ against $HOME and makes the result absolute.
// The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the annotated sample config to path, creating parent
// directories. Without overwrite an existing file yields ErrConfigExists.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
