package config

const (
	defaultConfigPath           = "~/.config/speechline/config.toml"
	defaultOutputDir            = "~/.local/share/speechline/chunks"
	defaultLogDir               = "~/.local/share/speechline/logs"
	defaultLedgerPath           = "~/.local/share/speechline/ledger.db"
	defaultSegmenterType        = "silence"
	defaultSilenceDuration      = 0.3
	defaultMinimumChunkDuration = 0.2
	defaultPhonemeMatch         = "substring"
	defaultMinimumEmptyDuration = 1.0
	defaultNoiseThreshold       = 0.5
	defaultNoiseClassifier      = ClassifierEnergy
	defaultEnergyFloorDB        = -40.0
	defaultMaxCandidates        = 200000
	defaultStdevTolerance       = 1.0
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultWorkers              = 4
	defaultAudioExtension       = "wav"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 50
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 30
)

var defaultPunctuations = []string{"?", ",", ".", "!", ";"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Segmenter: Segmenter{
			Type:                 defaultSegmenterType,
			SilenceDuration:      defaultSilenceDuration,
			MinimumChunkDuration: defaultMinimumChunkDuration,
			PhonemeMatch:         defaultPhonemeMatch,
		},
		Noise: Noise{
			MinimumEmptyDuration: defaultMinimumEmptyDuration,
			Threshold:            defaultNoiseThreshold,
			Classifier:           defaultNoiseClassifier,
			EnergyFloorDB:        defaultEnergyFloorDB,
		},
		Aligner: Aligner{
			Punctuations:   append([]string(nil), defaultPunctuations...),
			MaxCandidates:  defaultMaxCandidates,
			StdevTolerance: defaultStdevTolerance,
		},
		Audio: Audio{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Workflow: Workflow{
			Workers:        defaultWorkers,
			AudioExtension: defaultAudioExtension,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
