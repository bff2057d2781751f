package config

const (
	defaultLogDir               = "~/.local/share/dualsub/logs"
	defaultWorkDir              = "~/.cache/dualsub/work"
	defaultStateDir             = "~/.local/share/dualsub"
	defaultHistoryPath          = "~/.local/share/dualsub/history.db"
	defaultSourceLanguage       = "auto"
	defaultVADMinSilenceMS      = 500
	defaultVADThreshold         = 0.5
	defaultBeamSize             = 5
	defaultTranslationEngine    = "fastbatch"
	defaultTranslationBatchSize = 32
	defaultWorkers              = 1
	defaultTranscriptionBackend = "whisperx"
	defaultWhisperModel         = "large-v3"
	defaultDevice               = "cuda"
	defaultComputeType          = "float16"
	defaultFastBatchURL         = "http://127.0.0.1:5000"
	defaultHighQualityURL       = "http://127.0.0.1:8500"
	defaultTokenizerDir         = "~/nltk_data/tokenizers/punkt"
	defaultRequestTimeout       = 120
	defaultRetryAttempts        = 5
	defaultRetryBaseDelayMS     = 1000
	defaultRetryMaxDelayMS      = 10000
	defaultWhisperCacheDir      = "~/.cache/huggingface/hub"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

func defaultTranslationCacheDirs() []string {
	return []string{"~/.local/share/argos-translate", "~/.local/cache/argos-translate"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
		},
		Pipeline: Pipeline{
			SourceLanguage:       defaultSourceLanguage,
			VADEnabled:           true,
			VADMinSilenceMS:      defaultVADMinSilenceMS,
			VADThreshold:         defaultVADThreshold,
			BeamSize:             defaultBeamSize,
			TranslationEngine:    defaultTranslationEngine,
			TranslationBatchSize: defaultTranslationBatchSize,
			Workers:              defaultWorkers,
		},
		Transcription: Transcription{
			Backend:     defaultTranscriptionBackend,
			Model:       defaultWhisperModel,
			Device:      defaultDevice,
			ComputeType: defaultComputeType,
		},
		Translation: Translation{
			FastBatchURL:          defaultFastBatchURL,
			HighQualityURL:        defaultHighQualityURL,
			TokenizerDir:          defaultTokenizerDir,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Retry: Retry{
			Attempts:    defaultRetryAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			MaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Cache: Cache{
			WhisperDir:      defaultWhisperCacheDir,
			TranslationDirs: defaultTranslationCacheDirs(),
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
