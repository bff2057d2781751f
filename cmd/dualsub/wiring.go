package main

import (
	"context"
	"log/slog"
	"time"

	"dualsub/internal/accel"
	"dualsub/internal/audio"
	"dualsub/internal/config"
	"dualsub/internal/logging"
	"dualsub/internal/models"
	"dualsub/internal/pipeline"
	"dualsub/internal/transcription"
	"dualsub/internal/translation"
)

// buildOrchestrator wires the pipeline to the configured model servers.
// recorder may be nil.
func buildOrchestrator(cfg *config.Config, pc pipeline.Config, recorder pipeline.Recorder, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	lock := accel.New(cfg.Accelerator.LockFile)
	return pipeline.New(pipeline.Options{
		Config:      pc,
		Audio:       audio.NewExtractor(cfg.FFmpegBinary()),
		Recognizers: models.NewCache(recognizerLoader(cfg)),
		Backends:    models.NewCache(backendLoader(cfg, pc, lock, logger)),
		Lock:        lock,
		History:     recorder,
		WorkDir:     cfg.Paths.WorkDir,
		Logger:      logger,
	})
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Translation.RequestTimeoutSeconds) * time.Second
}

// recognizerLoader returns the transcription handle for a key. key.Engine
// carries the whisper model name.
func recognizerLoader(cfg *config.Config) models.Loader[transcription.Recognizer] {
	return func(ctx context.Context, key models.Key) (transcription.Recognizer, error) {
		if cfg.Transcription.Backend == "server" {
			recognizer := transcription.NewServerRecognizer(transcription.ServerConfig{
				BaseURL: cfg.Transcription.ServerURL,
				Model:   key.Engine,
				Token:   cfg.Transcription.HFToken,
			})
			if err := recognizer.Ping(ctx); err != nil {
				return nil, err
			}
			return recognizer, nil
		}
		return transcription.NewWhisperXRecognizer(transcription.WhisperXConfig{
			UVXBinary:   cfg.UVXBinary(),
			Model:       key.Engine,
			Device:      key.Device,
			ComputeType: cfg.Transcription.ComputeType,
			WorkDir:     cfg.Paths.WorkDir,
		}), nil
	}
}

// backendLoader builds a translation backend per (engine, pair, device).
// The FastBatch client caches the server's language graph, so one handle per
// pair keeps that lookup to a single request.
func backendLoader(cfg *config.Config, pc pipeline.Config, lock *accel.Lock, logger *slog.Logger) models.Loader[translation.Backend] {
	return func(ctx context.Context, key models.Key) (translation.Backend, error) {
		engine, err := translation.ParseEngine(key.Engine)
		if err != nil {
			return nil, err
		}
		deps := translation.Deps{
			Workers:  pc.Workers,
			BeamSize: pc.BeamSize,
			Retry:    pc.Retry,
			Lock:     lock,
			Logger:   logging.NewComponentLogger(logger, "translation"),
		}
		switch engine {
		case translation.EngineFastBatch:
			deps.Pair = translation.NewLibreClient(translation.LibreConfig{
				BaseURL: cfg.Translation.FastBatchURL,
				APIKey:  cfg.Translation.FastBatchAPIKey,
				Timeout: requestTimeout(cfg),
			})
		case translation.EngineHighQuality:
			deps.Model = translation.NewOpusClient(translation.OpusConfig{
				BaseURL: cfg.Translation.HighQualityURL,
				Timeout: requestTimeout(cfg),
			})
			deps.Resources = translation.TokenizerDir(cfg.Translation.TokenizerDir)
		}
		return translation.New(engine, deps)
	}
}
