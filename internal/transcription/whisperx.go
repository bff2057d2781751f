package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dualsub/internal/audio"
	"dualsub/internal/language"
	"dualsub/internal/services"
)

// WhisperX invocation constants.
const (
	DefaultWhisperModel = "large-v3"
	CUDAIndexURL        = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL        = "https://pypi.org/simple"
	DeviceCUDA          = "cuda"
	DeviceCPU           = "cpu"
	defaultComputeCUDA  = "float16"
	defaultComputeCPU   = "float32"
	whisperTemperature  = "0"
	whisperBatchSize    = "8"
)

// WhisperXConfig selects the model and runtime for WhisperXRecognizer.
type WhisperXConfig struct {
	UVXBinary   string
	Model       string
	Device      string
	ComputeType string
	// WorkDir receives per-call scratch directories; empty uses os.TempDir.
	WorkDir string
}

// WhisperXRecognizer runs the faster-whisper backend of WhisperX through uvx.
// Each call writes the clip as a 16 kHz WAV and parses WhisperX's JSON output.
type WhisperXRecognizer struct {
	cfg WhisperXConfig
	run audio.CommandRunner
}

// NewWhisperXRecognizer returns a recognizer with defaults filled in.
func NewWhisperXRecognizer(cfg WhisperXConfig) *WhisperXRecognizer {
	if cfg.UVXBinary == "" {
		cfg.UVXBinary = "uvx"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultWhisperModel
	}
	if cfg.Device == "" {
		cfg.Device = DeviceCUDA
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = defaultComputeCUDA
		if cfg.Device == DeviceCPU {
			cfg.ComputeType = defaultComputeCPU
		}
	}
	return &WhisperXRecognizer{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *WhisperXRecognizer) WithCommandRunner(runner audio.CommandRunner) {
	r.run = runner
}

// Model returns the configured model name for logging.
func (r *WhisperXRecognizer) Model() string { return r.cfg.Model }

// PerSegmentLanguage is true: WhisperX reports the language of every clip.
func (r *WhisperXRecognizer) PerSegmentLanguage() bool { return true }

// Recognize transcribes one clip.
func (r *WhisperXRecognizer) Recognize(ctx context.Context, req Request) (Recognition, error) {
	if err := req.Clip.Validate(); err != nil {
		return Recognition{}, err
	}
	dir, err := os.MkdirTemp(r.cfg.WorkDir, "whisperx-*")
	if err != nil {
		return Recognition{}, &services.IOError{Op: "mkdir", Path: r.cfg.WorkDir, Err: err}
	}
	defer os.RemoveAll(dir)

	clipPath := filepath.Join(dir, "clip.wav")
	if err := audio.WriteWAVFile(clipPath, req.Clip); err != nil {
		return Recognition{}, err
	}

	args := r.BuildArgs(clipPath, dir, req.Language, req.BeamSize)
	output, err := r.runner()(ctx, r.cfg.UVXBinary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		return Recognition{}, classifyWhisperFailure(err, output)
	}
	return loadWhisperJSON(filepath.Join(dir, "clip.json"))
}

// BuildArgs constructs the uvx arguments for one clip.
func (r *WhisperXRecognizer) BuildArgs(source, outputDir, lang string, beamSize int) []string {
	args := make([]string, 0, 32)
	if r.cfg.Device == DeviceCUDA {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	if beamSize < 1 {
		beamSize = 5
	}
	args = append(args,
		"whisperx",
		source,
		"--model", r.cfg.Model,
		"--batch_size", whisperBatchSize,
		"--beam_size", strconv.Itoa(beamSize),
		"--temperature", whisperTemperature,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--no_align",
		"--device", r.cfg.Device,
		"--compute_type", r.cfg.ComputeType,
	)
	if code := language.ToISO2(lang); code != "" {
		args = append(args, "--language", code)
	}
	return args
}

func (r *WhisperXRecognizer) runner() audio.CommandRunner {
	if r.run != nil {
		return r.run
	}
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
		// Torch 2.6 changed torch.load to weights_only=true, which breaks
		// WhisperX checkpoints.
		if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
			cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
		}
		return cmd.CombinedOutput()
	}
}

func classifyWhisperFailure(err error, output []byte) error {
	detail := strings.TrimSpace(string(output))
	if len(detail) > 512 {
		detail = detail[len(detail)-512:]
	}
	lower := strings.ToLower(detail)
	if strings.Contains(lower, "out of memory") && strings.Contains(lower, "cuda") {
		return services.Wrap(services.ErrTransient, "transcribe", "whisperx", "cuda out of memory", err)
	}
	return services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", detail, err)
}

type whisperPayload struct {
	Language string `json:"language"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func loadWhisperJSON(path string) (Recognition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recognition{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "output json missing", err)
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Recognition{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "parse output json", err)
	}
	parts := make([]string, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return Recognition{Text: strings.Join(parts, " "), Language: payload.Language}, nil
}

// String implements fmt.Stringer for log lines.
func (r *WhisperXRecognizer) String() string {
	return fmt.Sprintf("whisperx(%s/%s)", r.cfg.Model, r.cfg.Device)
}
