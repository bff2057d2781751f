package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"dualsub/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	WorkDir  string `toml:"work_dir"`
	StateDir string `toml:"state_dir"`
}

// Pipeline contains the per-run subtitle generation settings.
type Pipeline struct {
	SourceLanguage       string  `toml:"source_language"`
	TargetLanguage       string  `toml:"target_language"`
	VADEnabled           bool    `toml:"vad_enabled"`
	VADMinSilenceMS      int     `toml:"vad_min_silence_ms"`
	VADThreshold         float64 `toml:"vad_threshold"`
	VADSpeechPadMS       int     `toml:"vad_speech_pad_ms"`
	BeamSize             int     `toml:"beam_size"`
	TranslationEngine    string  `toml:"translation_engine"`
	TranslationBatchSize int     `toml:"translation_batch_size"`
	Workers              int     `toml:"workers"`
	TimeoutSeconds       int     `toml:"timeout_seconds"`
	DropEmptyCues        bool    `toml:"drop_empty_cues"`
	TrimOverlaps         bool    `toml:"trim_overlaps"`
}

// Transcription selects the speech recognition backend.
type Transcription struct {
	Backend     string `toml:"backend"`
	Model       string `toml:"model"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	ServerURL   string `toml:"server_url"`
	HFToken     string `toml:"hf_token"`
}

// Translation contains endpoints for the two translation engines.
type Translation struct {
	FastBatchURL          string `toml:"fastbatch_url"`
	FastBatchAPIKey       string `toml:"fastbatch_api_key"`
	HighQualityURL        string `toml:"highquality_url"`
	TokenizerDir          string `toml:"tokenizer_dir"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Retry bounds the backoff applied to transient model failures.
type Retry struct {
	Attempts    int `toml:"attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// Accelerator configures the shared inference lock.
type Accelerator struct {
	LockFile string `toml:"lock_file"`
}

// Cache lists model cache directories removed by cache clean.
type Cache struct {
	WhisperDir      string   `toml:"whisper_dir"`
	TranslationDirs []string `toml:"translation_dirs"`
}

// History controls the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dualsub.
//
// Configuration sections by subsystem:
//   - Paths: log, scratch, and state directories
//   - Pipeline: VAD, language, beam, batch, and worker settings
//   - Transcription: whisperx or whisper-server recognizer selection
//   - Translation: fastbatch and highquality endpoints
//   - Retry: backoff for transient model failures
//   - Accelerator: optional cross-process lock file
//   - Cache: model cache directories
//   - History: SQLite run ledger
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Retry         Retry         `toml:"retry"`
	Accelerator   Accelerator   `toml:"accelerator"`
	Cache         Cache         `toml:"cache"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dualsub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dualsub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.WorkDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// UVXBinary returns the uvx executable used to launch whisperx.
func (c *Config) UVXBinary() string {
	return "uvx"
}

// HistoryPath returns the run ledger database path, or "" when disabled.
func (c *Config) HistoryPath() string {
	if !c.History.Enabled {
		return ""
	}
	return c.History.Path
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
