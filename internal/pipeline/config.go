package pipeline

import (
	"fmt"
	"strings"
	"time"

	"dualsub/internal/language"
	"dualsub/internal/retry"
	"dualsub/internal/services"
	"dualsub/internal/subtitles"
	"dualsub/internal/translation"
	"dualsub/internal/vad"
)

// Config is the immutable per-run configuration. It is passed by value and
// never modified once a run starts.
type Config struct {
	// SourceLanguage is a language code or "auto".
	SourceLanguage string
	TargetLanguage string
	VAD            vad.Options
	BeamSize       int
	BatchSize      int
	Engine         translation.Engine
	Model          string
	Device         string
	Retry          retry.Policy
	Workers        int
	// Timeout bounds a whole run; zero means no limit.
	Timeout  time.Duration
	Assembly subtitles.Options
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TargetLanguage) == "" || language.Base(c.TargetLanguage) == language.Auto {
		return services.Wrap(services.ErrConfiguration, "pipeline", "config", "target language required", nil)
	}
	if _, err := translation.ParseEngine(string(c.Engine)); err != nil {
		return err
	}
	if err := c.VAD.Validate(); err != nil {
		return err
	}
	if c.BeamSize < 1 || c.BatchSize < 1 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "config",
			fmt.Sprintf("beam size (%d) and batch size (%d) must be positive", c.BeamSize, c.BatchSize), nil)
	}
	if c.Timeout < 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "config", "timeout must be >= 0", nil)
	}
	return nil
}

func (c Config) sourceLanguage() string {
	if strings.TrimSpace(c.SourceLanguage) == "" {
		return language.Auto
	}
	return c.SourceLanguage
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
