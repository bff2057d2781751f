package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dualsub/internal/language"
	"dualsub/internal/translation"
)

// Validate ensures the configuration is usable. The target language may be
// left empty here because the CLI can supply it per invocation; PipelineConfig
// rejects a run without one.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if p.SourceLanguage != "auto" && !language.Valid(p.SourceLanguage) {
		return fmt.Errorf("pipeline.source_language %q is not a recognised language code (use auto to detect)", p.SourceLanguage)
	}
	if p.TargetLanguage != "" {
		if strings.EqualFold(p.TargetLanguage, "auto") {
			return errors.New("pipeline.target_language cannot be auto")
		}
		if !language.Valid(p.TargetLanguage) {
			return fmt.Errorf("pipeline.target_language %q is not a recognised language code", p.TargetLanguage)
		}
	}
	if p.VADThreshold <= 0 || p.VADThreshold > 1 {
		return errors.New("pipeline.vad_threshold must be greater than 0 and at most 1")
	}
	if p.VADSpeechPadMS < 0 {
		return errors.New("pipeline.vad_speech_pad_ms must be >= 0")
	}
	if p.TimeoutSeconds < 0 {
		return errors.New("pipeline.timeout_seconds must be >= 0")
	}
	if _, err := translation.ParseEngine(p.TranslationEngine); err != nil {
		return fmt.Errorf("pipeline.translation_engine: %w", err)
	}
	return ensurePositiveMap(map[string]int{
		"pipeline.vad_min_silence_ms":     p.VADMinSilenceMS,
		"pipeline.beam_size":              p.BeamSize,
		"pipeline.translation_batch_size": p.TranslationBatchSize,
		"pipeline.workers":                p.Workers,
	})
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisperx":
	case "server":
		if c.Transcription.ServerURL == "" {
			return errors.New("transcription.server_url must be set when transcription.backend is server (or set DUALSUB_WHISPER_URL)")
		}
	default:
		return fmt.Errorf("transcription.backend must be whisperx or server, got %q", c.Transcription.Backend)
	}
	switch c.Transcription.Device {
	case "cuda", "cpu":
	default:
		return fmt.Errorf("transcription.device must be cuda or cpu, got %q", c.Transcription.Device)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	engine, _ := translation.ParseEngine(c.Pipeline.TranslationEngine)
	switch engine {
	case translation.EngineFastBatch:
		if c.Translation.FastBatchURL == "" {
			return errors.New("translation.fastbatch_url must be set (or set DUALSUB_TRANSLATE_URL)")
		}
	case translation.EngineHighQuality:
		if c.Translation.HighQualityURL == "" {
			return errors.New("translation.highquality_url must be set (or set DUALSUB_OPUS_URL)")
		}
	}
	if c.Translation.RequestTimeoutSeconds <= 0 {
		return errors.New("translation.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if err := ensurePositiveMap(map[string]int{
		"retry.attempts":      c.Retry.Attempts,
		"retry.base_delay_ms": c.Retry.BaseDelayMS,
		"retry.max_delay_ms":  c.Retry.MaxDelayMS,
	}); err != nil {
		return err
	}
	if c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return errors.New("retry.max_delay_ms must be >= retry.base_delay_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
