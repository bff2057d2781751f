package preflight

import (
	"context"
	"time"

	"dualsub/internal/config"
	"dualsub/internal/deps"
	"dualsub/internal/transcription"
	"dualsub/internal/translation"
)

// endpointTimeout bounds each reachability check.
const endpointTimeout = 5 * time.Second

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Optional results never block a run.
	Optional bool `json:"optional,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if path := cfg.HistoryPath(); path != "" {
		results = append(results, CheckParentAccess("History ledger", path))
	}

	results = append(results, FromDeps(deps.CheckBinaries(ctx, SystemRequirements(cfg)))...)

	if cfg.Transcription.Backend == "server" {
		server := transcription.NewServerRecognizer(transcription.ServerConfig{
			BaseURL: cfg.Transcription.ServerURL,
			Token:   cfg.Transcription.HFToken,
			Timeout: endpointTimeout,
		})
		results = append(results, CheckEndpoint(ctx, "Whisper server", cfg.Transcription.ServerURL, server))
	}

	engine, err := translation.ParseEngine(cfg.Pipeline.TranslationEngine)
	if err != nil {
		return append(results, Result{Name: "Translation engine", Detail: err.Error()})
	}
	switch engine {
	case translation.EngineFastBatch:
		client := translation.NewLibreClient(translation.LibreConfig{
			BaseURL: cfg.Translation.FastBatchURL,
			APIKey:  cfg.Translation.FastBatchAPIKey,
			Timeout: endpointTimeout,
		})
		results = append(results, CheckEndpoint(ctx, "LibreTranslate", cfg.Translation.FastBatchURL, client))
	case translation.EngineHighQuality:
		client := translation.NewOpusClient(translation.OpusConfig{
			BaseURL: cfg.Translation.HighQualityURL,
			Timeout: endpointTimeout,
		})
		results = append(results, CheckEndpoint(ctx, "Opus-MT server", cfg.Translation.HighQualityURL, client))
		results = append(results, CheckTokenizers(cfg.Translation.TokenizerDir, cfg.Pipeline.SourceLanguage, cfg.Pipeline.TargetLanguage))
	}
	return results
}

// SystemRequirements lists the binaries the configured backends execute.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	requirements := []deps.Requirement{deps.FFmpeg(cfg.FFmpegBinary())}
	if cfg.Transcription.Backend == "whisperx" {
		requirements = append(requirements, deps.UVX(cfg.UVXBinary()))
	}
	return requirements
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
