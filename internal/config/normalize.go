package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeTranscription()
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.Accelerator.LockFile, err = expandPath(strings.TrimSpace(c.Accelerator.LockFile)); err != nil {
		return fmt.Errorf("accelerator.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.SourceLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.SourceLanguage))
	if c.Pipeline.SourceLanguage == "" {
		c.Pipeline.SourceLanguage = defaultSourceLanguage
	}
	c.Pipeline.TargetLanguage = strings.TrimSpace(c.Pipeline.TargetLanguage)
	c.Pipeline.TranslationEngine = strings.ToLower(strings.TrimSpace(c.Pipeline.TranslationEngine))
	if c.Pipeline.TranslationEngine == "" {
		c.Pipeline.TranslationEngine = defaultTranslationEngine
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = defaultWorkers
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	if c.Transcription.Device == "" {
		c.Transcription.Device = defaultDevice
	}
	c.Transcription.ComputeType = strings.ToLower(strings.TrimSpace(c.Transcription.ComputeType))
	if c.Transcription.ComputeType == "" {
		c.Transcription.ComputeType = defaultComputeType
	}
	c.Transcription.ServerURL = strings.TrimRight(strings.TrimSpace(c.Transcription.ServerURL), "/")
	if c.Transcription.ServerURL == "" {
		if value, ok := os.LookupEnv("DUALSUB_WHISPER_URL"); ok {
			c.Transcription.ServerURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranslation() error {
	if value, ok := os.LookupEnv("DUALSUB_TRANSLATE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Translation.FastBatchURL = value
	}
	if value, ok := os.LookupEnv("DUALSUB_OPUS_URL"); ok && strings.TrimSpace(value) != "" {
		c.Translation.HighQualityURL = value
	}
	c.Translation.FastBatchURL = strings.TrimRight(strings.TrimSpace(c.Translation.FastBatchURL), "/")
	c.Translation.HighQualityURL = strings.TrimRight(strings.TrimSpace(c.Translation.HighQualityURL), "/")
	c.Translation.FastBatchAPIKey = strings.TrimSpace(c.Translation.FastBatchAPIKey)
	if strings.TrimSpace(c.Translation.TokenizerDir) == "" {
		c.Translation.TokenizerDir = defaultTokenizerDir
	}
	var err error
	if c.Translation.TokenizerDir, err = expandPath(c.Translation.TokenizerDir); err != nil {
		return fmt.Errorf("translation.tokenizer_dir: %w", err)
	}
	if c.Translation.RequestTimeoutSeconds == 0 {
		c.Translation.RequestTimeoutSeconds = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.WhisperDir) == "" {
		c.Cache.WhisperDir = defaultWhisperCacheDir
	}
	if c.Cache.WhisperDir, err = expandPath(c.Cache.WhisperDir); err != nil {
		return fmt.Errorf("cache.whisper_dir: %w", err)
	}
	dirs := make([]string, 0, len(c.Cache.TranslationDirs))
	for _, dir := range c.Cache.TranslationDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("cache.translation_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Cache.TranslationDirs = dirs
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
