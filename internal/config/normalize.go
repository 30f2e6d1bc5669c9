package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSegmenter()
	if err := c.normalizeLexicon(); err != nil {
		return err
	}
	c.normalizeNoise()
	c.normalizeAligner()
	c.normalizeAudio()
	c.normalizeWorkflow()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(strings.TrimSpace(c.Paths.LedgerPath)); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSegmenter() {
	c.Segmenter.Type = strings.ToLower(strings.TrimSpace(c.Segmenter.Type))
	if c.Segmenter.Type == "" {
		c.Segmenter.Type = defaultSegmenterType
	}
	c.Segmenter.PhonemeMatch = strings.ToLower(strings.TrimSpace(c.Segmenter.PhonemeMatch))
	if c.Segmenter.PhonemeMatch == "" {
		c.Segmenter.PhonemeMatch = defaultPhonemeMatch
	}
}

func (c *Config) normalizeLexicon() error {
	paths := make([]string, 0, len(c.Lexicon.Paths))
	for _, p := range c.Lexicon.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expanded, err := expandPath(p)
		if err != nil {
			return fmt.Errorf("lexicon.paths: %w", err)
		}
		paths = append(paths, expanded)
	}
	c.Lexicon.Paths = paths
	return nil
}

func (c *Config) normalizeNoise() {
	c.Noise.Classifier = strings.ToLower(strings.TrimSpace(c.Noise.Classifier))
	if c.Noise.Classifier == "" {
		c.Noise.Classifier = defaultNoiseClassifier
	}
	if c.Noise.EnergyFloorDB == 0 {
		c.Noise.EnergyFloorDB = defaultEnergyFloorDB
	}
}

func (c *Config) normalizeAligner() {
	puncts := make([]string, 0, len(c.Aligner.Punctuations))
	seen := make(map[string]struct{}, len(c.Aligner.Punctuations))
	for _, p := range c.Aligner.Punctuations {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, exists := seen[p]; exists {
			continue
		}
		seen[p] = struct{}{}
		puncts = append(puncts, p)
	}
	if len(puncts) == 0 {
		puncts = append(puncts, defaultPunctuations...)
	}
	c.Aligner.Punctuations = puncts
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeWorkflow() {
	ext := strings.ToLower(strings.TrimSpace(c.Workflow.AudioExtension))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = defaultAudioExtension
	}
	c.Workflow.AudioExtension = ext
}

func (c *Config) normalizeMetrics() error {
	path := strings.TrimSpace(c.Metrics.TextfilePath)
	if path == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	c.Metrics.TextfilePath = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
