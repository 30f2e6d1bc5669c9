package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ClassifierEnergy selects the RMS energy noise classifier.
const ClassifierEnergy = "energy"

var (
	segmenterTypes   = []string{"silence", "word_overlap", "phoneme_overlap"}
	phonemeMatches   = []string{"substring", "exact"}
	noiseClassifiers = []string{ClassifierEnergy}
	logLevels        = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateNoise(); err != nil {
		return err
	}
	if err := c.validateAligner(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if !slices.Contains(segmenterTypes, c.Segmenter.Type) {
		return fmt.Errorf("segmenter.type %q is not supported (expected one of %s)", c.Segmenter.Type, strings.Join(segmenterTypes, ", "))
	}
	if !slices.Contains(phonemeMatches, c.Segmenter.PhonemeMatch) {
		return fmt.Errorf("segmenter.phoneme_match %q is not supported (expected one of %s)", c.Segmenter.PhonemeMatch, strings.Join(phonemeMatches, ", "))
	}
	if err := ensureNonNegative(map[string]float64{
		"segmenter.silence_duration":       c.Segmenter.SilenceDuration,
		"segmenter.minimum_chunk_duration": c.Segmenter.MinimumChunkDuration,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNoise() error {
	if !slices.Contains(noiseClassifiers, c.Noise.Classifier) {
		return fmt.Errorf("noise.classifier %q is not supported (expected one of %s)", c.Noise.Classifier, strings.Join(noiseClassifiers, ", "))
	}
	if c.Noise.MinimumEmptyDuration < 0 {
		return errors.New("noise.minimum_empty_duration must be >= 0")
	}
	if c.Noise.Threshold < 0 || c.Noise.Threshold > 1 {
		return errors.New("noise.threshold must be between 0 and 1")
	}
	if c.Noise.EnergyFloorDB > 0 {
		return errors.New("noise.energy_floor_db must be <= 0")
	}
	return nil
}

func (c *Config) validateAligner() error {
	if c.Aligner.MaxCandidates < 1 {
		return errors.New("aligner.max_candidates must be >= 1")
	}
	if c.Aligner.StdevTolerance <= 0 {
		return errors.New("aligner.stdev_tolerance must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 1 {
		return errors.New("workflow.workers must be >= 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

func ensureNonNegative(values map[string]float64) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}
