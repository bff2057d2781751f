package config

import (
	"errors"
	"time"

	"dualsub/internal/pipeline"
	"dualsub/internal/retry"
	"dualsub/internal/subtitles"
	"dualsub/internal/translation"
	"dualsub/internal/vad"
)

// RetryPolicy converts the [retry] section into a backoff policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts:  c.Retry.Attempts,
		BaseDelay: time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:  time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
	}
}

// PipelineConfig builds the immutable per-run configuration. It fails when no
// target language has been configured.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	if c.Pipeline.TargetLanguage == "" {
		return pipeline.Config{}, errors.New("pipeline.target_language is required (set it in config or pass --to)")
	}
	engine, err := translation.ParseEngine(c.Pipeline.TranslationEngine)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		SourceLanguage: c.Pipeline.SourceLanguage,
		TargetLanguage: c.Pipeline.TargetLanguage,
		VAD: vad.Options{
			Enabled:    c.Pipeline.VADEnabled,
			MinSilence: time.Duration(c.Pipeline.VADMinSilenceMS) * time.Millisecond,
			Threshold:  c.Pipeline.VADThreshold,
			SpeechPad:  time.Duration(c.Pipeline.VADSpeechPadMS) * time.Millisecond,
		},
		BeamSize:  c.Pipeline.BeamSize,
		BatchSize: c.Pipeline.TranslationBatchSize,
		Engine:    engine,
		Model:     c.Transcription.Model,
		Device:    c.Transcription.Device,
		Retry:     c.RetryPolicy(),
		Workers:   c.Pipeline.Workers,
		Timeout:   time.Duration(c.Pipeline.TimeoutSeconds) * time.Second,
		Assembly: subtitles.Options{
			DropEmpty:    c.Pipeline.DropEmptyCues,
			TrimOverlaps: c.Pipeline.TrimOverlaps,
		},
	}, nil
}
