package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dualsub/internal/config"
	"dualsub/internal/translation"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HF_TOKEN", "hf-test")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "dualsub", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Cache.WhisperDir != filepath.Join(tempHome, ".cache", "huggingface", "hub") {
		t.Fatalf("unexpected whisper cache dir: %q", cfg.Cache.WhisperDir)
	}
	if len(cfg.Cache.TranslationDirs) != 2 {
		t.Fatalf("expected two translation cache dirs, got %v", cfg.Cache.TranslationDirs)
	}
	if cfg.Pipeline.SourceLanguage != "auto" {
		t.Fatalf("expected auto source language, got %q", cfg.Pipeline.SourceLanguage)
	}
	if cfg.Pipeline.VADMinSilenceMS != 500 || cfg.Pipeline.VADThreshold != 0.5 || !cfg.Pipeline.VADEnabled {
		t.Fatalf("unexpected VAD defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.BeamSize != 5 || cfg.Pipeline.TranslationBatchSize != 32 || cfg.Pipeline.Workers != 1 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.TranslationEngine != "fastbatch" {
		t.Fatalf("expected fastbatch default, got %q", cfg.Pipeline.TranslationEngine)
	}
	if cfg.Transcription.Model != "large-v3" || cfg.Transcription.Device != "cuda" || cfg.Transcription.ComputeType != "float16" {
		t.Fatalf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	if cfg.Transcription.HFToken != "hf-test" {
		t.Fatalf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.WorkDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dualsub.toml")

	type payload struct {
		Pipeline struct {
			TargetLanguage    string `toml:"target_language"`
			TranslationEngine string `toml:"translation_engine"`
			VADMinSilenceMS   int    `toml:"vad_min_silence_ms"`
		} `toml:"pipeline"`
		Transcription struct {
			Backend   string `toml:"backend"`
			ServerURL string `toml:"server_url"`
		} `toml:"transcription"`
	}
	custom := payload{}
	custom.Pipeline.TargetLanguage = "de"
	custom.Pipeline.TranslationEngine = "HighQuality"
	custom.Pipeline.VADMinSilenceMS = 800
	custom.Transcription.Backend = "server"
	custom.Transcription.ServerURL = "http://gpu-box:8080/"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Pipeline.TranslationEngine != "highquality" {
		t.Fatalf("expected engine to be normalized, got %q", cfg.Pipeline.TranslationEngine)
	}
	if cfg.Transcription.ServerURL != "http://gpu-box:8080" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transcription.ServerURL)
	}

	pc, err := cfg.PipelineConfig()
	if err != nil {
		t.Fatalf("PipelineConfig returned error: %v", err)
	}
	if pc.TargetLanguage != "de" || pc.Engine != translation.EngineHighQuality {
		t.Fatalf("unexpected pipeline config: %+v", pc)
	}
	if pc.VAD.MinSilence != 800*time.Millisecond || !pc.VAD.Enabled {
		t.Fatalf("unexpected VAD options: %+v", pc.VAD)
	}
	if pc.Retry.Attempts != 5 || pc.Retry.BaseDelay != time.Second || pc.Retry.MaxDelay != 10*time.Second {
		t.Fatalf("unexpected retry policy: %+v", pc.Retry)
	}
}

func TestEnvVarFallbacksForEndpoints(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DUALSUB_TRANSLATE_URL", "http://libre:5000/")
	t.Setenv("DUALSUB_OPUS_URL", "http://opus:8500")
	t.Setenv("DUALSUB_WHISPER_URL", "http://whisper:9000")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Translation.FastBatchURL != "http://libre:5000" {
		t.Errorf("expected fastbatch url from env, got %q", cfg.Translation.FastBatchURL)
	}
	if cfg.Translation.HighQualityURL != "http://opus:8500" {
		t.Errorf("expected highquality url from env, got %q", cfg.Translation.HighQualityURL)
	}
	if cfg.Transcription.ServerURL != "http://whisper:9000" {
		t.Errorf("expected whisper url from env, got %q", cfg.Transcription.ServerURL)
	}
}

func TestPipelineConfigRequiresTargetLanguage(t *testing.T) {
	cfg := config.Default()
	if _, err := cfg.PipelineConfig(); err == nil {
		t.Fatal("expected error without target language")
	}
	cfg.Pipeline.TargetLanguage = "fr"
	if _, err := cfg.PipelineConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "translation_engine") {
		t.Fatalf("sample config missing translation_engine: %s", contents)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Pipeline.TargetLanguage != "en" {
		t.Fatalf("expected sample target language en, got %q", cfg.Pipeline.TargetLanguage)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero threshold", func(c *config.Config) { c.Pipeline.VADThreshold = 0 }},
		{"threshold above one", func(c *config.Config) { c.Pipeline.VADThreshold = 1.5 }},
		{"zero min silence", func(c *config.Config) { c.Pipeline.VADMinSilenceMS = 0 }},
		{"zero beam", func(c *config.Config) { c.Pipeline.BeamSize = 0 }},
		{"zero batch", func(c *config.Config) { c.Pipeline.TranslationBatchSize = 0 }},
		{"unknown engine", func(c *config.Config) { c.Pipeline.TranslationEngine = "deepl" }},
		{"auto target", func(c *config.Config) { c.Pipeline.TargetLanguage = "auto" }},
		{"bad target", func(c *config.Config) { c.Pipeline.TargetLanguage = "not a language" }},
		{"server without url", func(c *config.Config) { c.Transcription.Backend = "server" }},
		{"bad device", func(c *config.Config) { c.Transcription.Device = "tpu" }},
		{"max below base", func(c *config.Config) { c.Retry.MaxDelayMS = 10 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
